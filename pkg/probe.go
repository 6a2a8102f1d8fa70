package fuzzratio

import (
	"fmt"
	"os"

	"github.com/davidbyttow/govips/v2/vips"
)

// dimensionsFromBuffer decodes the image header with vips and returns its displayed size.
// EXIF orientation is applied first, a rotated portrait photo must not be fuzzed as landscape.
func dimensionsFromBuffer(buffer []byte) (int, int, error) {
	img, err := vips.NewImageFromBuffer(buffer)
	if err != nil {
		return 0, 0, err
	}
	defer img.Close()

	err = img.AutoRotate()
	if err != nil {
		return 0, 0, err
	}

	return img.Width(), img.Height(), nil
}

func probeFile(ref fileRef, opts Options) (*Sample, error) {
	// Load the file into []bytes
	bytesBuffer, err := os.ReadFile(ref.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.FilePath, err)
	}

	width, height, err := dimensionsFromBuffer(bytesBuffer)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref.FileName, err)
	}

	opts.Width, opts.Height = float64(width), float64(height)
	result, err := Compute(opts)
	if err != nil {
		return nil, fmt.Errorf("fuzz %s: %w", ref.FileName, err)
	}

	return &Sample{
		ID:     ref.FileName,
		Path:   ref.FilePath,
		Width:  width,
		Height: height,
		Result: result,
	}, nil
}
