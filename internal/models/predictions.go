package models

import "math"

const (
	DefaultPredictYear       = 2024
	DefaultPredictShotType   = "3PT Field Goal"
	DefaultPredictActionType = "Jump Shot"
)

// PredictShotRequest describes a hypothetical shot to score.
type PredictShotRequest struct {
	LocX       *float64 `json:"LOC_X" validate:"required"`
	LocY       *float64 `json:"LOC_Y" validate:"required"`
	Distance   *float64 `json:"SHOT_DISTANCE,omitempty"`
	Year       int      `json:"YEAR"`
	ShotType   string   `json:"SHOT_TYPE"`
	ActionType string   `json:"ACTION_TYPE"`
}

func (r *PredictShotRequest) UnmarshalJSON(data []byte) error {
	type Alias PredictShotRequest
	return flexUnmarshal(data, (*Alias)(r))
}

// ApplyDefaults fills in the optional fields. A missing or zero distance is
// derived from the court location.
func (r *PredictShotRequest) ApplyDefaults() {
	if r.Year == 0 {
		r.Year = DefaultPredictYear
	}
	if r.ShotType == "" {
		r.ShotType = DefaultPredictShotType
	}
	if r.ActionType == "" {
		r.ActionType = DefaultPredictActionType
	}
	if (r.Distance == nil || *r.Distance == 0) && r.LocX != nil && r.LocY != nil {
		d := math.Hypot(*r.LocX, *r.LocY)
		r.Distance = &d
	}
}

// PredictShotResponse carries the make probability rounded to 3 decimals.
type PredictShotResponse struct {
	ProbabilityMake float64 `json:"probability_make"`
}

// PredictGridRequest scores every (x, y) combination with shared context.
type PredictGridRequest struct {
	Xs         []float64 `json:"xs" validate:"required,min=1,max=200"`
	Ys         []float64 `json:"ys" validate:"required,min=1,max=200"`
	Year       int       `json:"YEAR"`
	ShotType   string    `json:"SHOT_TYPE"`
	ActionType string    `json:"ACTION_TYPE"`
}

// GridPoint is one scored grid location.
type GridPoint struct {
	LocX            float64 `json:"LOC_X"`
	LocY            float64 `json:"LOC_Y"`
	Distance        float64 `json:"SHOT_DISTANCE"`
	ProbabilityMake float64 `json:"probability_make"`
}

// PredictGridResponse wraps the scored grid in x-major order.
type PredictGridResponse struct {
	Points []GridPoint `json:"points"`
}
