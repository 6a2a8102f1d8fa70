package fuzzratio

import (
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
)

// Ratio is an aspect ratio in pixel-dimension form.
type Ratio struct {
	// Making it explicit how we store width and height, guarding against potential confusion
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// RatioError describes how far one dimension of a fuzzed candidate lands from the true value
type RatioError struct {
	Diff    float64 `json:"diff"`    // absolute deviation, in scaled pixel units
	Percent float64 `json:"percent"` // deviation as a percentage of the true value, 2 decimals
	Mod     float64 `json:"mod"`     // floored value, rescaled by the divisor
}

type FuzzError struct {
	Width  RatioError `json:"width"`
	Height RatioError `json:"height"`
}

// FuzzRatio is a small-integer ratio approximating the true one within tolerance.
// Original holds the divided dimensions before rounding.
type FuzzRatio struct {
	Ratio
	Original Ratio     `json:"original"`
	Error    FuzzError `json:"error"`
}

// Result is the outcome of one Fuzz call. Ratio is always the exact reduced ratio,
// Fuzzed and Alts are only populated when error-bearing candidates survived.
type Result struct {
	Ratio  Ratio       `json:"ratio"`
	Fuzzed *FuzzRatio  `json:"fuzzed,omitempty"`
	Alts   []FuzzRatio `json:"alts,omitempty"`
}

// AspectRatio returns width / height
func (r Ratio) AspectRatio() float64 {
	// Specifying how we compute the aspect ratio explicitly, since height/width and width/height are both valid options
	return r.Width / r.Height
}

func (r Ratio) String() string {
	return formatDimension(r.Width) + ":" + formatDimension(r.Height)
}

func (r Ratio) integral() bool {
	return isIntegral(r.Width) && isIntegral(r.Height)
}

// Reduce divides both dimensions by their greatest common divisor.
// Non-integral ratios are returned untouched, there is no meaningful GCD for them.
func (r Ratio) Reduce() Ratio {
	if !r.integral() {
		return r
	}
	w, h := int64(r.Width), int64(r.Height)
	g := gcd(w, h)
	if g == 0 {
		return r
	}
	return Ratio{Width: float64(w / g), Height: float64(h / g)}
}

// CombinedPercent is the summed percent error of both dimensions, used to pick between duplicates
func (f FuzzRatio) CombinedPercent() float64 {
	return f.Error.Width.Percent + f.Error.Height.Percent
}

// gcd runs the Euclidean algorithm iteratively, no recursion depth to worry about
func gcd[T constraints.Integer](a, b T) T {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func isIntegral(v float64) bool {
	return !math.IsInf(v, 0) && math.Trunc(v) == v
}

// round2 rounds half up to two decimals
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func formatDimension(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ratioKey(width, height float64) string {
	return formatDimension(width) + ":" + formatDimension(height)
}
