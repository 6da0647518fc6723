package models

// Breakdown is one row of a grouped shot table.
type Breakdown struct {
	Label    string  `json:"label"`
	Attempts int     `json:"attempts"`
	Made     int     `json:"made"`
	FGPct    float64 `json:"fg_pct"`
}

// PlayerSummary aggregates a player's shots. Summaries are replaced
// wholesale when recomputed, never patched in place.
type PlayerSummary struct {
	PlayerName  string      `json:"player_name"`
	TotalShots  int         `json:"total_shots"`
	MadeShots   int         `json:"made_shots"`
	FGPct       float64     `json:"fg_pct"`
	AvgDistance float64     `json:"avg_distance"`
	ByShotType  []Breakdown `json:"by_shot_type"`
	ByYear      []Breakdown `json:"by_year"`
	ByZone      []Breakdown `json:"by_zone"`
	ByAction    []Breakdown `json:"by_action"`
}

// Zone returns the breakdown row for the given zone label.
func (s *PlayerSummary) Zone(label string) (Breakdown, bool) {
	for _, b := range s.ByZone {
		if b.Label == label {
			return b, true
		}
	}
	return Breakdown{}, false
}

func (s *PlayerSummary) UnmarshalJSON(data []byte) error {
	type Alias PlayerSummary
	return flexUnmarshal(data, (*Alias)(s))
}

func (b *Breakdown) UnmarshalJSON(data []byte) error {
	type Alias Breakdown
	return flexUnmarshal(data, (*Alias)(b))
}

// ShotBin is one cell of a two-dimensional shot histogram.
type ShotBin struct {
	XBin     int     `json:"x_bin"`
	YBin     int     `json:"y_bin"`
	Attempts int     `json:"attempts"`
	Made     int     `json:"made"`
	FGPct    float64 `json:"fg_pct"`
}

// BinResult is the response shape of a binned shot request.
type BinResult struct {
	Bins   []ShotBin  `json:"bins"`
	XBins  int        `json:"x_bins"`
	YBins  int        `json:"y_bins"`
	XRange [2]float64 `json:"x_range"`
	YRange [2]float64 `json:"y_range"`
}
