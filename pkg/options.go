package fuzzratio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pelletier/go-toml/v2"
)

// All the supported error metrics
type FuzzType string

const (
	FuzzTypePercent FuzzType = "percent"
	FuzzTypeRange   FuzzType = "range"
)

var (
	ErrInvalidDimensions = errors.New("width and height must be positive whole pixel counts")
	ErrInvalidTolerance  = errors.New("tolerance must be a non-negative finite number")
	ErrUnknownFuzzType   = errors.New("unknown fuzz type")
	ErrInvalidRatio      = errors.New("allowed ratios must have positive finite dimensions")
)

// Options are the inputs of a single Fuzz call.
// Tolerance is read on a 0-100 scale for percent, in pixels for range.
type Options struct {
	Width         float64  `json:"width" toml:"width"`
	Height        float64  `json:"height" toml:"height"`
	Type          FuzzType `json:"type" toml:"type"`
	Tolerance     float64  `json:"tolerance" toml:"tolerance"`
	AllowedRatios []Ratio  `json:"allowedRatios,omitempty" toml:"allowed_ratios,omitempty"`
}

func (o *Options) setDefaults() {
	o.Type = FuzzTypePercent
	o.Tolerance = 0
	o.AllowedRatios = nil
}

// GetOptions returns the default options, dimensions are left to the caller
func GetOptions() Options {
	opts := Options{}
	opts.setDefaults()
	return opts
}

// OptionsFromJSON decodes options on top of the defaults.
// NOTE: The undefined fields will follow the default values
func OptionsFromJSON(data []byte) (Options, error) {
	opts := GetOptions()
	if err := json.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return opts, nil
}

// OptionsFromTOML decodes a tolerance profile, e.g.
//
//	type = "range"
//	tolerance = 2
//	allowed_ratios = [{ width = 16, height = 9 }, { width = 4, height = 3 }]
func OptionsFromTOML(r io.Reader) (Options, error) {
	opts := GetOptions()
	decoder := toml.NewDecoder(r)
	if err := decoder.Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	return opts, nil
}

// Validate checks the preconditions Fuzz relies on
func (o Options) Validate() error {
	if !positiveFinite(o.Width) || !positiveFinite(o.Height) {
		return fmt.Errorf("%w: got %vx%v", ErrInvalidDimensions, o.Width, o.Height)
	}
	// Fractional pixels have no greatest common divisor, the exact ratio could not be reduced
	if !isIntegral(o.Width) || !isIntegral(o.Height) {
		return fmt.Errorf("%w: got %vx%v", ErrInvalidDimensions, o.Width, o.Height)
	}
	return o.validateTolerance()
}

// validateTolerance checks everything but the dimensions, scans only know them once an image is probed
func (o Options) validateTolerance() error {
	if o.Tolerance < 0 || math.IsNaN(o.Tolerance) || math.IsInf(o.Tolerance, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTolerance, o.Tolerance)
	}
	switch o.Type {
	case FuzzTypePercent, FuzzTypeRange:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFuzzType, o.Type)
	}
	for _, r := range o.AllowedRatios {
		if !positiveFinite(r.Width) || !positiveFinite(r.Height) {
			return fmt.Errorf("%w: got %s", ErrInvalidRatio, r)
		}
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
