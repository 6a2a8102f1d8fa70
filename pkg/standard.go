package fuzzratio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Common display, photo and video ratios, landscape first.
var standardRatios = []Ratio{
	{1, 1},
	{5, 4},
	{4, 3},
	{3, 2},
	{16, 10},
	{16, 9},
	{21, 9},
	{9, 16},
	{3, 4},
	{2, 3},
}

// StandardRatios returns a copy of the common ratio catalogue, usable as an allow-list
func StandardRatios() []Ratio {
	out := make([]Ratio, len(standardRatios))
	copy(out, standardRatios)
	return out
}

// ClosestStandard returns the catalogue entry nearest to r, and the relative distance
// between their decimal aspect ratios.
func ClosestStandard(r Ratio) (Ratio, float64) {
	aspectRatio := r.AspectRatio()

	// Small catalogue, walking through all of it is fine
	minDiff := math.MaxFloat64
	closest := standardRatios[0]
	for _, s := range standardRatios {
		diff := math.Abs(s.AspectRatio() - aspectRatio)
		if diff < minDiff {
			minDiff = diff
			closest = s
		}
	}

	return closest, minDiff / aspectRatio
}

// ParseRatio reads "16:9" or "1920x1080" forms
func ParseRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = "x"
	}
	parts := strings.Split(strings.ToLower(s), sep)
	if len(parts) != 2 {
		return Ratio{}, fmt.Errorf("invalid ratio %q, expected W:H or WxH", s)
	}

	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("invalid ratio width %q: %w", parts[0], err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("invalid ratio height %q: %w", parts[1], err)
	}
	if !positiveFinite(w) || !positiveFinite(h) {
		return Ratio{}, fmt.Errorf("%w: got %q", ErrInvalidRatio, s)
	}
	return Ratio{Width: w, Height: h}, nil
}
