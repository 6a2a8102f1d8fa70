package fuzzratio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/davidbyttow/govips/v2/vips"
	_ "go.uber.org/automaxprocs" // GOMAXPROCS follows the container CPU quota
)

// -------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------
// Public interface for the batch scanner, will be reflected in the python bindings

// ScanConfig is the configuration of a directory scan. Fuzz carries the tolerance options,
// its dimensions are ignored and replaced by the ones of each probed image.
type ScanConfig struct {
	RootPath           string  `json:"root_path"`
	PageSize           int     `json:"page_size"`
	Rank               int     `json:"rank"`
	WorldSize          int     `json:"world_size"`
	Concurrency        int     `json:"concurrency"`
	PrefetchBufferSize int     `json:"prefetch_buffer_size"`
	SamplesBufferSize  int     `json:"samples_buffer_size"`
	Limit              int     `json:"limit"`
	Fuzz               Options `json:"fuzz"`

	Logger *log.Logger `json:"-"`
}

func (c *ScanConfig) setDefaults() {
	c.RootPath = os.Getenv("FUZZRATIO_TEST_FILESYSTEM")
	c.PageSize = 512
	c.Rank = 0
	c.WorldSize = 1
	c.Concurrency = 0 // one worker per CPU
	c.PrefetchBufferSize = 64
	c.SamplesBufferSize = 32
	c.Limit = 0
	c.Fuzz = GetOptions()
}

func (c ScanConfig) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func GetScanConfig() ScanConfig {
	config := ScanConfig{}
	config.setDefaults()
	return config
}

// ScanConfigFromJSON decodes a scan configuration.
// NOTE: The undefined fields will follow the default values
func ScanConfigFromJSON(jsonString string) (ScanConfig, error) {
	config := GetScanConfig()
	if err := json.Unmarshal([]byte(jsonString), &config); err != nil {
		return ScanConfig{}, fmt.Errorf("unmarshal scan config: %w", err)
	}
	return config, nil
}

// ScanClient probes the images below a root directory and fuzzes their aspect ratio in the background
type ScanClient struct {
	context   context.Context
	waitGroup *sync.WaitGroup
	cancel    context.CancelFunc
	mu        sync.Mutex

	config        ScanConfig
	logger        *log.Logger
	servedSamples int
	walkErr       error

	// Flexible generator and backend goroutines
	generator Generator
	backend   Backend

	// Channels	- these will be used to communicate between the background goroutines
	chanPages   *BufferedChan[Pages]
	chanFiles   *BufferedChan[fileRef]
	chanSamples *BufferedChan[Sample]
}

// -------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------

// GetScanClient is a constructor for the ScanClient. Nothing runs until Start() is called
func GetScanClient(config ScanConfig) (*ScanClient, error) {
	if err := config.Fuzz.validateTolerance(); err != nil {
		return nil, err
	}

	generator, err := newGeneratorFileSystem(config)
	if err != nil {
		return nil, err
	}

	// Initialize the vips library
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(nil)

	client := &ScanClient{
		config:    config,
		logger:    config.logger(),
		generator: generator,
		backend:   backendFileSystem{concurrency: config.Concurrency, logger: config.logger()},
	}

	// Make sure that the client will be Stopped() upon destruction
	runtime.SetFinalizer(client, func(r *ScanClient) {
		r.Stop()
	})

	return client, nil
}

func GetScanClientFromJSON(jsonString string) (*ScanClient, error) {
	config, err := ScanConfigFromJSON(jsonString)
	if err != nil {
		return nil, err
	}
	return GetScanClient(config)
}

// Start the background walk and probing, make it ready to serve samples
func (c *ScanClient) Start() {
	c.StartContext(context.Background())
}

// StartContext is Start, bound to the caller's context: cancelling it winds the scan down
// and GetSample stops blocking once the pending samples are drained
func (c *ScanClient) StartContext(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return // Already running
	}

	// Get a context and a cancel function to stop the background goroutines
	c.context, c.cancel = context.WithCancel(ctx)
	c.servedSamples = 0
	c.walkErr = nil

	c.chanPages = NewBufferedChan[Pages](2)
	c.chanFiles = NewBufferedChan[fileRef](int32(c.config.PrefetchBufferSize))
	c.chanSamples = NewBufferedChan[Sample](int32(c.config.SamplesBufferSize))

	c.logger.Info("scanning", "root", c.config.RootPath, "type", c.config.Fuzz.Type, "tolerance", c.config.Fuzz.Tolerance)

	// Start all goroutines and log them in a waitgroup
	var wg sync.WaitGroup
	ctx = c.context

	wg.Add(1)
	go func() {
		defer wg.Done()
		// Collect the file pages, the error is recorded before consumers can see the end of the stream
		if err := c.generator.generatePages(ctx, c.chanPages); err != nil && ctx.Err() == nil {
			c.logger.Error("listing files failed", "err", err)
			c.mu.Lock()
			c.walkErr = err
			c.mu.Unlock()
		}
		c.chanPages.Close()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.asyncDispatch(ctx) // Dispatch the content of the pages to the files channel
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.backend.collectSamples(ctx, c.chanFiles, c.chanSamples, c.config.Fuzz)
	}()

	c.waitGroup = &wg
}

// GetSample returns the next probed sample. An empty ID means that there is nothing left to serve
func (c *ScanClient) GetSample() Sample {
	c.mu.Lock()
	started := c.cancel != nil
	c.mu.Unlock()

	if !started && c.servedSamples == 0 {
		c.logger.Debug("scan client not started, starting it on the first sample")
		c.Start()
	}

	if c.config.Limit > 0 && c.servedSamples == c.config.Limit {
		c.logger.Debug("reached the limit of samples to serve, stopping the client", "limit", c.config.Limit)
		c.Stop()
		return Sample{}
	}

	c.mu.Lock()
	chanSamples := c.chanSamples
	c.mu.Unlock()
	if chanSamples == nil {
		return Sample{}
	}

	sample, err := chanSamples.Receive()
	if err != nil {
		c.logger.Debug("no more samples to serve", "served", c.servedSamples)
		return Sample{}
	}
	c.servedSamples++
	return sample
}

// Err reports a failure to list the root directory, if any
func (c *ScanClient) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.walkErr
}

// Stop the background goroutines and wait for them to wind down
func (c *ScanClient) Stop() {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return // Already stopped
	}

	// Signal the coroutines that next round should be a stop
	c.cancel()
	c.cancel = nil
	wg := c.waitGroup
	chanPages, chanFiles, chanSamples := c.chanPages, c.chanFiles, c.chanSamples
	c.mu.Unlock()

	// Clear the channels, in case a send is blocking
	go chanPages.Empty()
	go chanFiles.Empty()
	go chanSamples.Empty()

	// Wait for all goroutines to finish
	if wg != nil {
		wg.Wait()
	}
	c.logger.Debug("scan client stopped")
}

// -------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------------
// Coroutines which will be running in the background

func (c *ScanClient) asyncDispatch(ctx context.Context) {
	// Break down the pages and maintain a list of individual files to be probed
	defer c.chanFiles.Close()

	for {
		page, err := c.chanPages.Receive()
		if err != nil {
			c.logger.Debug("no more files to list, wrapping up")
			return
		}

		for _, ref := range page.files {
			if !c.chanFiles.SendContext(ctx, ref) {
				return
			}
		}
		c.logger.Debug("page dispatched", "files", len(page.files), "queued", c.chanFiles.Len(), "ready", c.chanSamples.Len())
	}
}
