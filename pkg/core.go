package fuzzratio

import (
	"context"
	"errors"
	"sync/atomic"
)

var ErrChannelClosed = errors.New("channel closed")

type BufferedChan[T any] struct {
	_channel     chan T
	currentItems atomic.Int32
	maxItems     int32
}

// --- Simple buffered channel implementation ---------------------------------------------------------------------------------------------------------------------------------------------------------------
// Make it possible to track the current channel status from the outside

func NewBufferedChan[T any](maxItems int32) *BufferedChan[T] {
	return &BufferedChan[T]{_channel: make(chan T, maxItems), maxItems: maxItems}
}

func (b *BufferedChan[T]) Send(item T) {
	b._channel <- item
	b.currentItems.Add(1)
}

// SendContext gives up if the context is cancelled while the channel is full
func (b *BufferedChan[T]) SendContext(ctx context.Context, item T) bool {
	select {
	case <-ctx.Done():
		return false
	case b._channel <- item:
		b.currentItems.Add(1)
		return true
	}
}

func (b *BufferedChan[T]) Receive() (T, error) {
	item, open := <-b._channel
	if !open {
		return item, ErrChannelClosed
	}
	b.currentItems.Add(-1)
	return item, nil
}

// Len is a snapshot, there will be some noise measuring this
func (b *BufferedChan[T]) Len() int32 {
	return b.currentItems.Load()
}

func (b *BufferedChan[T]) Cap() int32 {
	return b.maxItems
}

func (b *BufferedChan[T]) Empty() {
	consumeChannel(b._channel)
}

func (b *BufferedChan[T]) Close() {
	close(b._channel)
}

// --- Sample data structures - these will be exposed to the Python world ---------------------------------------------------------------------------------------------------------------------------------------------------------------

type Sample struct {
	ID     string `json:"id"` // file name
	Path   string `json:"path"`
	Width  int    `json:"width"` // after EXIF orientation has been applied
	Height int    `json:"height"`
	Result Result `json:"result"`
}

// --- Generator and Backend interfaces ---------------------------------------------------------------------------------------------------------------------------------------------------------------

// The generator will be responsible for producing pages of files which can be dispatched
// to the probing workers

type fileRef struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

type Pages struct {
	files []fileRef
}

type Generator interface {
	generatePages(ctx context.Context, chanPages *BufferedChan[Pages]) error
}

// The backend will be responsible for reading the image dimensions and fuzzing their ratio
type Backend interface {
	collectSamples(ctx context.Context, chanFiles *BufferedChan[fileRef], chanSamples *BufferedChan[Sample], opts Options)
}
