package fuzzratio_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fuzzratio "fuzzratio/pkg"
)

// writePNG saves a flat image of the requested size
func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

// initTestData lays out a small tree of images, plus files the scan must ignore or skip
func initTestData(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), os.ModePerm))

	writePNG(t, filepath.Join(dir, "wide.png"), 160, 90)
	writePNG(t, filepath.Join(dir, "noisy.png"), 161, 90)
	writePNG(t, filepath.Join(dir, "nested", "classic.PNG"), 64, 48)
	writePNG(t, filepath.Join(dir, "nested", "square.png"), 50, 50)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png either"), 0o644))
	return dir
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testScanConfig(root string) fuzzratio.ScanConfig {
	config := fuzzratio.GetScanConfig()
	config.RootPath = root
	config.PageSize = 2
	config.Concurrency = 2
	config.Fuzz.Type = fuzzratio.FuzzTypePercent
	config.Fuzz.Tolerance = 1
	config.Logger = quietLogger()
	return config
}

func collect(client *fuzzratio.ScanClient) map[string]fuzzratio.Sample {
	samples := make(map[string]fuzzratio.Sample)
	for {
		sample := client.GetSample()
		if sample.ID == "" {
			return samples
		}
		samples[sample.ID] = sample
	}
}

func TestScanDirectory(t *testing.T) {
	root := initTestData(t)

	client, err := fuzzratio.GetScanClient(testScanConfig(root))
	require.NoError(t, err)
	client.Start()
	defer client.Stop()

	samples := collect(client)
	require.NoError(t, client.Err())
	require.Len(t, samples, 4, "txt files are ignored and undecodable images skipped")

	expected := map[string]struct {
		width, height int
		ratio         string
	}{
		"wide.png":    {160, 90, "16:9"},
		"noisy.png":   {161, 90, "161:90"},
		"classic.PNG": {64, 48, "4:3"},
		"square.png":  {50, 50, "1:1"},
	}
	for id, want := range expected {
		sample, ok := samples[id]
		require.True(t, ok, id)
		assert.Equal(t, want.width, sample.Width, id)
		assert.Equal(t, want.height, sample.Height, id)
		assert.Equal(t, want.ratio, sample.Result.Ratio.String(), id)
		assert.FileExists(t, sample.Path)
	}

	// 161x90 is one pixel off 16:9, within a percent
	require.NotNil(t, samples["noisy.png"].Result.Fuzzed)
	assert.Equal(t, "16:9", samples["noisy.png"].Result.Fuzzed.String())
}

func TestScanLimit(t *testing.T) {
	config := testScanConfig(initTestData(t))
	config.Limit = 2

	client, err := fuzzratio.GetScanClient(config)
	require.NoError(t, err)

	// Not started on purpose, the first GetSample starts the client
	assert.Len(t, collect(client), 2)
	client.Stop()
}

func TestScanShards(t *testing.T) {
	root := initTestData(t)

	seen := make(map[string]int)
	total := 0
	for rank := 0; rank < 2; rank++ {
		config := testScanConfig(root)
		config.Rank = rank
		config.WorldSize = 2

		client, err := fuzzratio.GetScanClient(config)
		require.NoError(t, err)
		client.Start()
		for id := range collect(client) {
			seen[id]++
			total++
		}
		client.Stop()
	}

	assert.Equal(t, 4, total)
	for id, count := range seen {
		assert.Equal(t, 1, count, "%s was probed by more than one shard", id)
	}
}

func TestScanRestart(t *testing.T) {
	client, err := fuzzratio.GetScanClient(testScanConfig(initTestData(t)))
	require.NoError(t, err)

	client.Start()
	client.Stop()
	client.Stop() // stopping twice is a no-op

	client.Start()
	assert.Len(t, collect(client), 4)
	client.Stop()
}

func TestScanContextCancelled(t *testing.T) {
	root := initTestData(t)

	// Cancelled before the walk starts, nothing is ever listed
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := fuzzratio.GetScanClient(testScanConfig(root))
	require.NoError(t, err)
	client.StartContext(ctx)
	assert.Empty(t, collect(client))
	assert.NoError(t, client.Err(), "a cancelled walk is not a failure")
	client.Stop()

	// Cancelled mid-scan, GetSample must stop blocking instead of waiting for the rest of the tree
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	client, err = fuzzratio.GetScanClient(testScanConfig(root))
	require.NoError(t, err)
	client.StartContext(ctx)
	defer client.Stop()

	require.NotEmpty(t, client.GetSample().ID)
	cancel()

	done := make(chan map[string]fuzzratio.Sample)
	go func() { done <- collect(client) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("GetSample kept blocking after the context was cancelled")
	}
}

func TestScanMissingRoot(t *testing.T) {
	client, err := fuzzratio.GetScanClient(testScanConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	client.Start()
	defer client.Stop()

	assert.Empty(t, collect(client))
	assert.Error(t, client.Err())
}

func TestScanConfigValidation(t *testing.T) {
	config := testScanConfig(t.TempDir())
	config.Rank = 2
	config.WorldSize = 2
	_, err := fuzzratio.GetScanClient(config)
	assert.Error(t, err)

	config = testScanConfig(t.TempDir())
	config.Fuzz.Tolerance = -1
	_, err = fuzzratio.GetScanClient(config)
	assert.ErrorIs(t, err, fuzzratio.ErrInvalidTolerance)
}

func TestScanConfigFromJSON(t *testing.T) {
	config, err := fuzzratio.ScanConfigFromJSON(`{
		"root_path": "/data/frames",
		"page_size": 16,
		"fuzz": {"type": "range", "tolerance": 2}
	}`)
	require.NoError(t, err)

	assert.Equal(t, "/data/frames", config.RootPath)
	assert.Equal(t, 16, config.PageSize)
	assert.Equal(t, 1, config.WorldSize, "undefined fields keep their defaults")
	assert.Equal(t, 64, config.PrefetchBufferSize)
	assert.Equal(t, fuzzratio.FuzzTypeRange, config.Fuzz.Type)
	assert.Equal(t, 2.0, config.Fuzz.Tolerance)

	_, err = fuzzratio.ScanConfigFromJSON(`{"page_size": "many"}`)
	assert.Error(t, err)
}

func TestBufferedChan(t *testing.T) {
	ch := fuzzratio.NewBufferedChan[int](4)
	ch.Send(1)
	ch.Send(2)
	assert.EqualValues(t, 2, ch.Len())
	assert.EqualValues(t, 4, ch.Cap())

	item, err := ch.Receive()
	require.NoError(t, err)
	assert.Equal(t, 1, item)
	assert.EqualValues(t, 1, ch.Len())

	ch.Close()
	ch.Empty()
	_, err = ch.Receive()
	assert.ErrorIs(t, err, fuzzratio.ErrChannelClosed)
}
