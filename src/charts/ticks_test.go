package charts

import (
	"math"
	"reflect"
	"testing"
)

func TestNiceTicks(t *testing.T) {
	cases := []struct {
		min, max float64
		n        int
		whole    bool
	}{
		{0, 100, 6, false},
		{0, 1, 5, false},
		{5, 5.2, 4, false},
		{-10, 10, 7, false},
		{0, 11, 6, true},
		{0, 1, 6, true},
	}
	for _, c := range cases {
		vals := niceTicks(c.min, c.max, c.n, c.whole)
		if len(vals) < 2 {
			t.Fatalf("expected >=2 ticks for %#v got %v", c, vals)
		}
		if vals[0] > c.min && math.Abs(vals[0]-c.min) > 1e-6 {
			t.Fatalf("first tick %v should not exceed min %v", vals[0], c.min)
		}
		if last := vals[len(vals)-1]; last < c.max && math.Abs(last-c.max) > 1e-6 {
			t.Fatalf("last tick %v should not be below max %v (vals=%v)", last, c.max, vals)
		}
		if c.whole {
			for _, v := range vals {
				if v != math.Trunc(v) {
					t.Fatalf("non-integer tick %v in %v", v, vals)
				}
			}
		}
	}

	if got := niceTicks(-1, 1, 5, false); !reflect.DeepEqual(got, []float64{-1, -0.5, 0, 0.5, 1}) {
		t.Fatalf("sentiment ticks: %v", got)
	}
	if got := niceTicks(0, math.Inf(1), 5, false); got != nil {
		t.Fatalf("infinite span: %v", got)
	}
}

func TestCountAxis(t *testing.T) {
	r, ticks := countAxis([]float64{10, 7})
	if r.Min != 0 || r.Max != 12 {
		t.Fatalf("range: %v..%v", r.Min, r.Max)
	}
	if ticks[len(ticks)-1].Label != "12" {
		t.Fatalf("last tick: %+v", ticks[len(ticks)-1])
	}
	r, _ = countAxis(nil)
	if r.Max < 1 {
		t.Fatalf("empty axis must not collapse: %v", r.Max)
	}
	_, ticks = countAxis([]float64{2400})
	if ticks[len(ticks)-1].Label != "3,000" {
		t.Fatalf("grouped label: %+v", ticks)
	}
}
