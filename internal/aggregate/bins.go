package aggregate

import (
	"math"
	"sort"

	"github.com/courtside/shotchart-api/internal/models"
)

type binKey struct{ x, y int }

// Bin builds a two-dimensional histogram of shots over the observed data
// extent. Rows without a court location are skipped. Only non-empty bins are
// returned, ordered by x then y.
func Bin(shots []models.Shot, xBins, yBins int) models.BinResult {
	if xBins < 1 {
		xBins = 1
	}
	if yBins < 1 {
		yBins = 1
	}
	result := models.BinResult{XBins: xBins, YBins: yBins, Bins: []models.ShotBin{}}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	n := 0
	for _, s := range shots {
		if !s.HasLocation() {
			continue
		}
		n++
		minX, maxX = math.Min(minX, *s.LocX), math.Max(maxX, *s.LocX)
		minY, maxY = math.Min(minY, *s.LocY), math.Max(maxY, *s.LocY)
	}
	if n == 0 {
		return result
	}
	result.XRange = [2]float64{minX, maxX}
	result.YRange = [2]float64{minY, maxY}

	xWidth := (maxX - minX) / float64(xBins)
	yWidth := (maxY - minY) / float64(yBins)

	cells := make(map[binKey]*models.ShotBin)
	for _, s := range shots {
		if !s.HasLocation() {
			continue
		}
		k := binKey{
			x: binIndex(*s.LocX, minX, xWidth, xBins),
			y: binIndex(*s.LocY, minY, yWidth, yBins),
		}
		c, ok := cells[k]
		if !ok {
			c = &models.ShotBin{XBin: k.x, YBin: k.y}
			cells[k] = c
		}
		c.Attempts++
		if s.Made {
			c.Made++
		}
	}

	for _, c := range cells {
		c.FGPct = Pct(c.Made, c.Attempts)
		result.Bins = append(result.Bins, *c)
	}
	sort.Slice(result.Bins, func(i, j int) bool {
		if result.Bins[i].XBin != result.Bins[j].XBin {
			return result.Bins[i].XBin < result.Bins[j].XBin
		}
		return result.Bins[i].YBin < result.Bins[j].YBin
	})
	return result
}

// binIndex maps a value onto [0, bins-1]. A zero width means every point
// shares the coordinate and lands in the last bin.
func binIndex(v, min, width float64, bins int) int {
	if width <= 0 {
		return bins - 1
	}
	idx := int(math.Floor((v - min) / width))
	if idx < 0 {
		return 0
	}
	if idx >= bins {
		return bins - 1
	}
	return idx
}
