package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MadeFlag is a shot outcome. It encodes as 0/1 for chart clients and
// accepts 0/1, booleans and their string forms when decoding.
type MadeFlag bool

func (f MadeFlag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *MadeFlag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "1", "true", "made", "1.0":
		*f = true
	case "0", "false", "missed", "0.0", "", "null":
		*f = false
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid made flag %q", s)
		}
		*f = n > 0
	}
	return nil
}

// Shot is one recorded field-goal attempt. Rows are owned by the backing
// store; everything in this service handles read-only copies.
type Shot struct {
	PlayerName string   `json:"PLAYER_NAME,omitempty"`
	TeamName   string   `json:"TEAM_NAME,omitempty"`
	LocX       *float64 `json:"LOC_X"`
	LocY       *float64 `json:"LOC_Y"`
	Made       MadeFlag `json:"SHOT_MADE_FLAG"`
	Distance   *float64 `json:"SHOT_DISTANCE"`
	ShotType   string   `json:"SHOT_TYPE"`
	ActionType string   `json:"ACTION_TYPE"`
	Year       int      `json:"YEAR"`
}

// HasLocation reports whether both court coordinates are known.
func (s Shot) HasLocation() bool {
	return s.LocX != nil && s.LocY != nil && !math.IsNaN(*s.LocX) && !math.IsNaN(*s.LocY)
}

// ResolvedDistance returns the recorded distance, or the Euclidean norm of
// the court location when the distance is missing.
func (s Shot) ResolvedDistance() (float64, bool) {
	if s.Distance != nil && !math.IsNaN(*s.Distance) {
		return *s.Distance, true
	}
	if s.HasLocation() {
		return math.Hypot(*s.LocX, *s.LocY), true
	}
	return 0, false
}

func (s *Shot) UnmarshalJSON(data []byte) error {
	type Alias Shot
	return flexUnmarshal(data, (*Alias)(s))
}

// Float returns a pointer to v. Handy for building shots in code.
func Float(v float64) *float64 {
	return &v
}

// RosterEntry is the lightweight player projection used for search and listing.
type RosterEntry struct {
	Name       string  `json:"name"`
	TotalShots int     `json:"total_shots"`
	FGPct      float64 `json:"fg_pct"`
}

// UnmarshalJSON accepts numeric fields encoded as strings, which some
// PostgREST/RPC layers emit for numeric columns.
func (r *RosterEntry) UnmarshalJSON(data []byte) error {
	type Alias RosterEntry
	return flexUnmarshal(data, (*Alias)(r))
}
