package fuzzratio

import (
	"math"

	"golang.org/x/exp/slices"
)

// errorMetric is the per-dimension deviation of a candidate from the true value
type errorMetric struct {
	rng     float64
	percent float64
	ratio   float64 // integer candidate term for this dimension
	mod     float64
}

type candidateError struct {
	width  errorMetric
	height errorMetric
}

type candidate struct {
	width   float64 // dimension / divisor, before any rounding
	height  float64
	divisor int
	err     *candidateError // nil for exact reductions
}

// effective returns the pair the candidate stands for: the reduced error ratio if fuzzed, the raw division otherwise
func (c candidate) effective() (float64, float64) {
	if c.err != nil {
		return c.err.width.ratio, c.err.height.ratio
	}
	return c.width, c.height
}

func (c candidate) cost() float64 {
	w, h := c.effective()
	return w + h
}

func (c candidate) toFuzzRatio() FuzzRatio {
	return FuzzRatio{
		Ratio:    Ratio{Width: c.err.width.ratio, Height: c.err.height.ratio},
		Original: Ratio{Width: c.width, Height: c.height},
		Error: FuzzError{
			Width:  RatioError{Diff: c.err.width.rng, Percent: c.err.width.percent, Mod: c.err.width.mod},
			Height: RatioError{Diff: c.err.height.rng, Percent: c.err.height.percent, Mod: c.err.height.mod},
		},
	}
}

// --- Public entry points ---------------------------------------------------------------------------------------------------------------------------------------------------------------

// Compute validates the options before running Fuzz
func Compute(opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	return Fuzz(opts), nil
}

// Fuzz finds small-integer ratios approximating width:height within the requested tolerance.
// It never fails, but callers are expected to pass positive finite dimensions (see Options.Validate).
//
// The pipeline is linear: enumerate divisors, evaluate each of them, filter against the allow-list,
// rank by the sum of the ratio terms and assemble the best candidate plus deduplicated alternates.
func Fuzz(opts Options) Result {
	var candidates []candidate
	for d, last := 2, maxDivisor(opts.Width, opts.Height); d <= last; d++ {
		candidates = append(candidates, evaluate(opts, d)...)
	}

	candidates = filterAllowed(candidates, opts.AllowedRatios)
	rank(candidates)

	return assemble(Ratio{Width: opts.Width, Height: opts.Height}, candidates)
}

// --- Pipeline stages ---------------------------------------------------------------------------------------------------------------------------------------------------------------

// maxDivisor bounds the divisor scan: every integer from 2 up to half the smaller dimension is tried.
// Near-divisors are included on purpose, this is what lets us find 16:9 in 1921x1080.
// Anything below 2 means there is nothing to scan.
func maxDivisor(width, height float64) int {
	return int(math.Floor(math.Min(width, height) / 2))
}

// evaluate returns the candidates a single divisor produces: possibly an exact reduction,
// and an error-bearing candidate when the rounding error is within tolerance.
func evaluate(opts Options, divisor int) []candidate {
	var out []candidate

	d := float64(divisor)
	width, height := opts.Width/d, opts.Height/d

	if isIntegral(width) && isIntegral(height) {
		out = append(out, candidate{width: width, height: height, divisor: divisor})
	}

	metric := candidateError{
		width:  ratioError(width, d),
		height: ratioError(height, d),
	}

	// Flooring each side independently may leave a common factor behind
	if isIntegral(metric.width.ratio) && isIntegral(metric.height.ratio) {
		if g := gcd(int64(metric.width.ratio), int64(metric.height.ratio)); g > 1 {
			metric.width.ratio /= float64(g)
			metric.height.ratio /= float64(g)
		}
	}

	if withinTolerance(opts.Type, opts.Tolerance, metric) {
		out = append(out, candidate{width: width, height: height, divisor: divisor, err: &metric})
	}
	return out
}

// ratioError measures how far the floored value lands from the true one, once rescaled by the divisor
func ratioError(value, divisor float64) errorMetric {
	original := value * divisor
	mod := math.Floor(value) * divisor
	ratio := mod / divisor

	// Pick between the floored value and one step below, comparing against mod - ratio.
	// Keep the comparison basis as is, results are expected to match it exactly.
	closest := mod
	if math.Abs(mod-original) > math.Abs(mod-ratio-original) {
		closest = mod - ratio
	}

	rng := math.Abs(original - closest)
	return errorMetric{
		rng:     rng,
		percent: round2(rng / original * 100),
		ratio:   ratio,
		mod:     mod,
	}
}

func withinTolerance(fuzzType FuzzType, tolerance float64, metric candidateError) bool {
	switch fuzzType {
	case FuzzTypePercent:
		return metric.width.percent <= tolerance && metric.height.percent <= tolerance
	case FuzzTypeRange:
		return metric.width.rng <= tolerance && metric.height.rng <= tolerance
	default:
		return false
	}
}

// filterAllowed keeps the candidates whose effective pair is in the allow-list.
// Divisor 1, no reduction at all, always goes through.
func filterAllowed(candidates []candidate, allowed []Ratio) []candidate {
	if allowed == nil {
		return candidates
	}

	allowedSet := make(set)
	for _, r := range allowed {
		allowedSet.Add(ratioKey(r.Width, r.Height))
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if allowedSet.Contains(ratioKey(c.effective())) || c.divisor == 1 {
			kept = append(kept, c)
		}
	}
	return kept
}

// rank puts the smallest ratio terms first, equal costs keep their enumeration order
func rank(candidates []candidate) {
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		ca, cb := a.cost(), b.cost()
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		default:
			return 0
		}
	})
}

func assemble(original Ratio, ranked []candidate) Result {
	result := Result{Ratio: original.Reduce()}
	if len(ranked) == 0 {
		return result
	}

	// An exact winner is already expressed by Ratio, it is not surfaced as a fuzzed result
	if ranked[0].err != nil {
		best := ranked[0].toFuzzRatio()
		result.Fuzzed = &best
	}

	// Deduplicate the alternates on their fuzzed pair, keep the lowest combined error.
	// The first-seen position is kept so that the output follows the ranking.
	index := make(map[string]int)
	for _, c := range ranked[1:] {
		if c.err == nil {
			continue
		}
		alt := c.toFuzzRatio()
		key := ratioKey(alt.Width, alt.Height)

		i, seen := index[key]
		if !seen {
			index[key] = len(result.Alts)
			result.Alts = append(result.Alts, alt)
			continue
		}
		if alt.CombinedPercent() < result.Alts[i].CombinedPercent() {
			result.Alts[i] = alt
		}
	}
	return result
}
