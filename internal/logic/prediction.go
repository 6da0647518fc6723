package logic

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/courtside/shotchart-api/internal/aggregate"
	"github.com/courtside/shotchart-api/internal/models"
)

// ErrMissingLocation is returned when a shot has no court coordinates.
var ErrMissingLocation = errors.New("LOC_X and LOC_Y are required")

// Coefficients is a logistic model over shot features. Categorical weights
// are one-hot; categories without a weight contribute nothing.
type Coefficients struct {
	Intercept  float64            `json:"intercept"`
	LocX       float64            `json:"loc_x"`
	LocY       float64            `json:"loc_y"`
	Distance   float64            `json:"shot_distance"`
	Year       float64            `json:"year"`
	YearCenter float64            `json:"year_center"`
	ShotType   map[string]float64 `json:"shot_type"`
	ActionType map[string]float64 `json:"action_type"`
}

// DefaultCoefficients is used when no model file is available.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Intercept:  0.45,
		LocX:       0,
		LocY:       -0.0015,
		Distance:   -0.047,
		Year:       0.004,
		YearCenter: 2015,
		ShotType: map[string]float64{
			"2PT Field Goal": 0,
			"3PT Field Goal": -0.12,
		},
		ActionType: map[string]float64{
			"Jump Shot":           -0.05,
			"Pullup Jump shot":    -0.15,
			"Step Back Jump shot": -0.22,
			"Floating Jump shot":  -0.02,
			"Driving Layup Shot":  0.35,
			"Layup Shot":          0.4,
			"Cutting Layup Shot":  0.6,
			"Tip Layup Shot":      0.05,
			"Hook Shot":           0.1,
			"Dunk Shot":           1.9,
			"Running Dunk Shot":   2.0,
			"Alley Oop Dunk Shot": 2.1,
		},
	}
}

// LoadCoefficients reads a JSON model file. A missing file yields the
// built-in defaults.
func LoadCoefficients(path string) (Coefficients, error) {
	if path == "" {
		return DefaultCoefficients(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultCoefficients(), nil
	}
	if err != nil {
		return Coefficients{}, fmt.Errorf("read model: %w", err)
	}

	var coef Coefficients
	if err := json.Unmarshal(data, &coef); err != nil {
		return Coefficients{}, fmt.Errorf("decode model %s: %w", path, err)
	}
	return coef, nil
}

type logisticPredictor struct {
	coef Coefficients
}

func NewShotPredictor(coef Coefficients) ShotPredictor {
	return &logisticPredictor{coef: coef}
}

// Predict returns the make probability rounded to 3 decimals.
func (p *logisticPredictor) Predict(req *models.PredictShotRequest) (float64, error) {
	if req.LocX == nil || req.LocY == nil {
		return 0, ErrMissingLocation
	}
	req.ApplyDefaults()
	return aggregate.Round(p.score(*req.LocX, *req.LocY, *req.Distance, req.Year, req.ShotType, req.ActionType), 3), nil
}

// PredictGrid scores every x/y combination, x-major.
func (p *logisticPredictor) PredictGrid(req models.PredictGridRequest) []models.GridPoint {
	year := req.Year
	if year == 0 {
		year = models.DefaultPredictYear
	}
	shotType := req.ShotType
	if shotType == "" {
		shotType = models.DefaultPredictShotType
	}
	actionType := req.ActionType
	if actionType == "" {
		actionType = models.DefaultPredictActionType
	}

	points := make([]models.GridPoint, 0, len(req.Xs)*len(req.Ys))
	for _, x := range req.Xs {
		for _, y := range req.Ys {
			d := math.Hypot(x, y)
			points = append(points, models.GridPoint{
				LocX:            x,
				LocY:            y,
				Distance:        aggregate.Round(d, 1),
				ProbabilityMake: aggregate.Round(p.score(x, y, d, year, shotType, actionType), 3),
			})
		}
	}
	return points
}

func (p *logisticPredictor) score(x, y, distance float64, year int, shotType, actionType string) float64 {
	c := p.coef
	z := c.Intercept +
		c.LocX*x +
		c.LocY*y +
		c.Distance*distance +
		c.Year*(float64(year)-c.YearCenter) +
		c.ShotType[shotType] +
		c.ActionType[actionType]
	return 1 / (1 + math.Exp(-z))
}
