package crumbz

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Collector buffers task failures for later inspection or rendering.
// Register Collect as a Pool failure handler.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Collector struct {
	failures     []Failure
	failuresCh   chan Failure
	stopCh       chan struct{}
	done         chan struct{}
	droppedCount atomic.Int64
	name         string
	mu           sync.Mutex
	closed       atomic.Bool
	syncMode     atomic.Bool // Bypass channel for synchronous collection.
	closeOnce    sync.Once
}

// NewCollector creates a new collector with the specified name and buffer size.
func NewCollector(name string, bufferSize int) *Collector {
	c := &Collector{
		name:       name,
		failures:   make([]Failure, 0, 8),
		failuresCh: make(chan Failure, bufferSize),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.start()
	return c
}

// Name returns the collector's name.
func (c *Collector) Name() string {
	return c.name
}

// start runs the collector's main loop, receiving failures from the channel.
func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining failures before shutdown.
			for {
				select {
				case f := <-c.failuresCh:
					c.buffer(f)
				default:
					return
				}
			}
		case f := <-c.failuresCh:
			c.buffer(f)
		}
	}
}

// Close stops the collector, draining what was already queued.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stopCh)
		select {
		case <-c.done:
		case <-time.After(100 * time.Millisecond):
			// Timeout - drain goroutine still finishing.
		}
	})
}

// Collect buffers a failure with backpressure protection.
// If the internal channel is full, the failure is dropped and the drop
// counter is incremented. In sync mode failures are buffered directly.
func (c *Collector) Collect(f Failure) {
	if c.closed.Load() {
		c.droppedCount.Add(1)
		return
	}

	// Copy the snapshot so the buffer never aliases handler input.
	f.Context = f.Context.clone()

	if c.syncMode.Load() {
		c.buffer(f)
		return
	}

	select {
	case c.failuresCh <- f:
	default:
		// Channel full - drop to prevent blocking the worker.
		c.droppedCount.Add(1)
	}
}

func (c *Collector) buffer(f Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
}

// Export returns all buffered failures and clears the buffer.
func (c *Collector) Export() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.failures) == 0 {
		return nil
	}

	result := make([]Failure, len(c.failures))
	copy(result, c.failures)

	// Shrink oversized buffers to avoid holding on to closures.
	if cap(c.failures) > 256 && len(c.failures) < cap(c.failures)/8 {
		c.failures = make([]Failure, 0, 32)
	} else {
		clear(c.failures)
		c.failures = c.failures[:0]
	}

	return result
}

// Count returns the current number of buffered failures.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}

// DroppedCount returns the total number of failures dropped due to backpressure.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetSyncMode enables synchronous collection for testing.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode.Store(sync)
}

// Reset clears all buffered failures and resets the drop counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.failures)
	c.failures = c.failures[:0]
	c.droppedCount.Store(0)
}

// Render writes the failure and its breadcrumbs to w, like Error.Render.
func (f Failure) Render(w io.Writer, sep string) error {
	return Wrap(context.Background(), f.Err, "", WithSnapshot(f.Context)).Render(w, sep)
}
