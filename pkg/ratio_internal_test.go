package fuzzratio

import (
	"reflect"
	"testing"
)

func TestGCD(t *testing.T) {
	cases := []struct {
		a, b, want int64
	}{
		{1920, 1080, 120},
		{796, 1134, 2},
		{17, 5, 1},
		{0, 7, 7},
		{-12, 18, 6},
	}
	for _, c := range cases {
		if got := gcd(c.a, c.b); got != c.want {
			t.Errorf("gcd(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		0.125:   0.13,
		11.1111: 11.11,
		0.004:   0,
		2:       2,
	}
	for in, want := range cases {
		if got := round2(in); got != want {
			t.Errorf("round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestMaxDivisor(t *testing.T) {
	cases := []struct {
		width, height float64
		want          int
	}{
		{2, 2, 1},
		{3, 100, 1},
		{16, 9, 4},
		{4, 100, 2},
		{1e9, 1e9, 5e8},
	}
	for _, c := range cases {
		if got := maxDivisor(c.width, c.height); got != c.want {
			t.Errorf("maxDivisor(%v, %v) = %d, want %d", c.width, c.height, got, c.want)
		}
	}
}

func TestRatioError(t *testing.T) {
	// 9 / 2 = 4.5 floors to 4, which rescales to 8
	got := ratioError(4.5, 2)
	want := errorMetric{rng: 1, percent: 11.11, ratio: 4, mod: 8}
	if got != want {
		t.Errorf("ratioError(4.5, 2) = %+v, want %+v", got, want)
	}

	got = ratioError(8, 2)
	want = errorMetric{rng: 0, percent: 0, ratio: 8, mod: 16}
	if got != want {
		t.Errorf("ratioError(8, 2) = %+v, want %+v", got, want)
	}
}

func TestEvaluate(t *testing.T) {
	opts := Options{Width: 1920, Height: 1080, Type: FuzzTypePercent, Tolerance: 0}

	// An exact divisor yields both the exact reduction and a zero error candidate
	candidates := evaluate(opts, 120)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", candidates)
	}
	if candidates[0].err != nil || candidates[0].width != 16 || candidates[0].height != 9 {
		t.Errorf("unexpected exact candidate %+v", candidates[0])
	}
	if candidates[1].err == nil || candidates[1].err.width.ratio != 16 || candidates[1].err.height.ratio != 9 {
		t.Errorf("unexpected error candidate %+v", candidates[1])
	}

	// 1920/60 and 1080/60 floor to 32 and 18, the joint reduction brings them back to 16:9
	candidates = evaluate(opts, 60)
	w, h := candidates[1].effective()
	if w != 16 || h != 9 {
		t.Errorf("expected the error ratio to be reduced to 16:9, got %v:%v", w, h)
	}

	// Unknown metrics never accept an error-bearing candidate
	opts.Type = "area"
	if candidates := evaluate(opts, 7); len(candidates) != 0 {
		t.Errorf("expected no candidates, got %+v", candidates)
	}
}

func TestFilterAllowedKeepsDivisorOne(t *testing.T) {
	candidates := []candidate{
		{width: 1921, height: 1080, divisor: 1},
		{width: 16, height: 9, divisor: 120},
		{width: 8, height: 5, divisor: 2},
	}
	kept := filterAllowed(candidates, []Ratio{{16, 9}})
	if len(kept) != 2 || kept[0].divisor != 1 || kept[1].divisor != 120 {
		t.Errorf("unexpected filter result %+v", kept)
	}
}

func TestRankIsStable(t *testing.T) {
	candidates := []candidate{
		{width: 32, height: 18, divisor: 60},
		{width: 16, height: 9, divisor: 120},
		{width: 16, height: 9, divisor: 121, err: &candidateError{width: errorMetric{ratio: 16}, height: errorMetric{ratio: 9}}},
		{width: 4, height: 3, divisor: 360},
	}
	rank(candidates)

	var order []int
	for _, c := range candidates {
		order = append(order, c.divisor)
	}
	if !reflect.DeepEqual(order, []int{360, 120, 121, 60}) {
		t.Errorf("unexpected rank order %v", order)
	}
}
