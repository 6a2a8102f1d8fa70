package fuzzratio

import (
	"runtime"
	"sync/atomic"
)

// Define an enum which will be used to track the state of the worker
type workerState int32

const (
	workerStateIdle workerState = iota
	workerStateRunning
	workerStateDone
)

// Define a stateful worker struct which will be spawned by the worker pool
type worker struct {
	state atomic.Int32 // Allows us to track the state of the worker, useful for debugging
	done  chan struct{}
}

func (w *worker) setState(s workerState) {
	w.state.Store(int32(s))
}

func (w *worker) stop() {
	w.setState(workerStateDone)
	close(w.done)
}

// Manage a pool of workers, returns once every worker has stopped.
// A non-positive size falls back to one worker per CPU, which automaxprocs keeps container-aware.
func runWorkerPool(size int, sampleWorker func(*worker)) []*worker {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}

	// Start the workers and work on the input channel
	workers := make([]*worker, 0, size)
	for i := 0; i < size; i++ {
		newWorker := &worker{done: make(chan struct{})}
		workers = append(workers, newWorker)
		go func() {
			defer newWorker.stop()
			sampleWorker(newWorker)
		}()
	}

	// Wait until everyone is done
	for _, w := range workers {
		<-w.done
	}
	return workers
}
