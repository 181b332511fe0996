package charts

import (
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
)

// niceTicks generates about n tick positions spanning [min,max] on a 1, 2,
// 2.5, 5 step pattern. With whole set, only integer steps are considered.
func niceTicks(min, max float64, n int, whole bool) []float64 {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	bestStep := 0.0
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		if whole && (step < 1 || step != math.Trunc(step)) {
			continue
		}
		count := math.Max(math.Ceil(span/step)+1, 2)
		if diff := math.Abs(count - float64(n)); diff < bestScore {
			bestScore = diff
			bestStep = step
		}
	}
	if bestStep == 0 {
		bestStep = mag
		if whole {
			bestStep = 1
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	end := math.Ceil(max/bestStep) * bestStep
	var out []float64
	for v := start; v <= end+bestStep*0.5; v += bestStep {
		out = append(out, round6(v))
	}
	if len(out) < 2 {
		out = []float64{min, max}
	}
	return out
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// countAxis returns a 0-based count range widened to a whole tick, and the
// ticks themselves.
func countAxis(values []float64) (*chart.ContinuousRange, []chart.Tick) {
	r := countRange(values)
	pos := niceTicks(r.Min, r.Max, 6, true)
	if len(pos) > 0 {
		r.Max = pos[len(pos)-1]
	}
	return r, labelTicks(pos, countFormatter)
}

func labelTicks(pos []float64, f chart.ValueFormatter) []chart.Tick {
	ticks := make([]chart.Tick, len(pos))
	for i, v := range pos {
		ticks[i] = chart.Tick{Value: v, Label: f(v)}
	}
	return ticks
}
