package fuzzratio

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

type backendFileSystem struct {
	concurrency int
	logger      *log.Logger
}

// collectSamples probes every file coming through chanFiles and publishes the fuzzed results.
// chanSamples is closed once all the workers are done.
func (b backendFileSystem) collectSamples(ctx context.Context, chanFiles *BufferedChan[fileRef], chanSamples *BufferedChan[Sample], opts Options) {
	defer chanSamples.Close()

	sampleWorker := func(workerHandle *worker) {
		for {
			workerHandle.setState(workerStateIdle)
			ref, err := chanFiles.Receive()
			if errors.Is(err, ErrChannelClosed) {
				return
			}
			workerHandle.setState(workerStateRunning)

			sample, err := probeFile(ref, opts)
			if err != nil {
				// One unreadable file should not stop the scan
				b.logger.Warn("skipping file", "path", ref.FilePath, "err", err)
				continue
			}

			if !chanSamples.SendContext(ctx, *sample) {
				return
			}
		}
	}

	workers := runWorkerPool(b.concurrency, sampleWorker)
	b.logger.Debug("no more files to probe, wrapping up", "workers", len(workers))
}
