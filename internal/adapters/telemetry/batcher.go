// Package telemetry implements ports.Tracer on OpenTelemetry.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultSizeLimit is the buffered byte count that forces a flush.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the longest time output stays buffered.
	DefaultTimeLimit = 50 * time.Millisecond
)

// LineBatcher buffers builder output and hands it on in whole lines, either
// when the buffer grows past the size limit or when the time limit elapses.
// A trailing partial line is only flushed on Close. It is safe for concurrent use.
type LineBatcher struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func(lines []byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewLineBatcher starts a batcher. Non-positive limits select the defaults.
// Close must be called to stop its flush loop.
func NewLineBatcher(sizeLimit int, timeLimit time.Duration, onFlush func(lines []byte)) *LineBatcher {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	b := &LineBatcher{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		ticker:    time.NewTicker(timeLimit),
		stopCh:    make(chan struct{}),
	}
	go b.run()
	return b
}

// Write buffers p.
func (b *LineBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, zerr.New("line batcher is closed")
	}
	n, _ := b.buffer.Write(p)
	if b.buffer.Len() >= b.sizeLimit {
		b.flushLocked(false)
		b.ticker.Reset(b.timeLimit)
	}
	return n, nil
}

// Flush hands on every complete buffered line.
func (b *LineBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.flushLocked(false)
	}
}

// Close stops the flush loop and hands on everything still buffered.
func (b *LineBatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.stopCh)
	b.flushLocked(true)
	return nil
}

func (b *LineBatcher) run() {
	for {
		select {
		case <-b.ticker.C:
			b.Flush()
		case <-b.stopCh:
			b.ticker.Stop()
			return
		}
	}
}

// flushLocked must be called with mu held. Unless all is set, a partial
// last line stays buffered, except when it alone exceeds the size limit.
func (b *LineBatcher) flushLocked(all bool) {
	data := b.buffer.Bytes()
	n := len(data)
	if !all {
		if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
			n = i + 1
		} else if n < b.sizeLimit {
			n = 0
		}
	}
	if n == 0 {
		return
	}

	out := bytes.Clone(data[:n])
	b.buffer.Next(n)
	if b.onFlush != nil {
		b.onFlush(out)
	}
}
