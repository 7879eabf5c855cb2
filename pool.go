package crumbz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

// Failure describes a task that panicked on a Pool worker.
type Failure struct {
	Time     time.Time
	Err      error
	Context  Snapshot
	ID       uuid.UUID
	WorkerID int
}

// FailureHandler is called when a task fails on a worker.
type FailureHandler func(f Failure)

type handlerEntry struct {
	handler FailureHandler
	id      uint64
	async   bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithClock sets the clock used for timeouts.
// Enables clock injection for deterministic testing.
func WithClock(clock clockz.Clock) PoolOption {
	return func(p *Pool) { p.clock = clock }
}

// Pool is a fixed-size worker pool implementing Executor.
// Safe for concurrent use by multiple goroutines.
//
// Every worker owns its own Stack, created when the worker starts. Tasks
// submitted directly see that stack; decorate the pool with Decorate to run
// tasks under their submitter's breadcrumbs instead.
//
//nolint:govet // Field order optimized for functionality over memory
type Pool struct {
	tasks        chan Task
	closing      chan struct{}
	terminated   chan struct{}
	handlers     []handlerEntry
	panicHook    func(handlerID uint64, r interface{})
	ids          *IDPool
	clock        clockz.Clock
	inflight     sync.WaitGroup
	workers      sync.WaitGroup
	handlersLock sync.RWMutex
	stateLock    sync.RWMutex
	nextID       atomic.Uint64
	failures     atomic.Uint64
	shutdown     bool
	abort        atomic.Bool
}

// NewPool starts workers goroutines fed by a queue of queueSize tasks.
func NewPool(workers, queueSize int, opts ...PoolOption) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be > 0", ErrInvalidArgument)
	}
	if queueSize < 0 {
		return nil, fmt.Errorf("%w: queueSize must be >= 0", ErrInvalidArgument)
	}

	p := &Pool{
		tasks:      make(chan Task, queueSize),
		closing:    make(chan struct{}),
		terminated: make(chan struct{}),
		handlers:   make([]handlerEntry, 0),
		clock:      clockz.RealClock,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ids = NewIDPool(workers*16, uuid.New)

	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run(i)
	}

	return p, nil
}

// NewPoolFromConfig sizes a pool from cfg.
func NewPoolFromConfig(cfg Config, opts ...PoolOption) (*Pool, error) {
	return NewPool(cfg.Workers, cfg.QueueSize, opts...)
}

// OnFailure registers a synchronous handler called when a task panics.
func (p *Pool) OnFailure(handler FailureHandler) uint64 {
	return p.registerHandler(handler, false)
}

// OnFailureAsync registers a handler run on its own goroutine.
func (p *Pool) OnFailureAsync(handler FailureHandler) uint64 {
	return p.registerHandler(handler, true)
}

func (p *Pool) registerHandler(handler FailureHandler, async bool) uint64 {
	if handler == nil {
		return 0
	}

	id := p.nextID.Add(1)

	p.handlersLock.Lock()
	defer p.handlersLock.Unlock()

	p.handlers = append(p.handlers, handlerEntry{
		id:      id,
		handler: handler,
		async:   async,
	})

	return id
}

// RemoveHandler removes a handler by ID.
func (p *Pool) RemoveHandler(id uint64) {
	p.handlersLock.Lock()
	defer p.handlersLock.Unlock()

	// Preserve order
	for i, h := range p.handlers {
		if h.id == id {
			copy(p.handlers[i:], p.handlers[i+1:])
			p.handlers = p.handlers[:len(p.handlers)-1]
			return
		}
	}
}

// SetPanicHook sets a function to be called when a handler panics.
// Set it before tasks can fail.
func (p *Pool) SetPanicHook(hook func(handlerID uint64, r interface{})) {
	p.handlersLock.Lock()
	defer p.handlersLock.Unlock()
	p.panicHook = hook
}

// Failures returns the number of tasks that panicked.
func (p *Pool) Failures() uint64 {
	return p.failures.Load()
}

// Clock returns the pool's clock.
func (p *Pool) Clock() clockz.Clock {
	return p.clock
}

// NewID returns a submission id from the pool's id buffer.
func (p *Pool) NewID() uuid.UUID {
	return p.ids.Get()
}

// Execute queues task, waiting for space if the queue is full.
func (p *Pool) Execute(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidArgument)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.stateLock.RLock()
	if p.shutdown {
		p.stateLock.RUnlock()
		return ErrRejected
	}
	p.inflight.Add(1)
	p.stateLock.RUnlock()
	defer p.inflight.Done()

	select {
	case p.tasks <- task:
		return nil
	case <-p.closing:
		return ErrRejected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks. Queued tasks still run.
func (p *Pool) Shutdown() {
	p.stateLock.Lock()
	if p.shutdown {
		p.stateLock.Unlock()
		return
	}
	p.shutdown = true
	close(p.closing)
	p.stateLock.Unlock()

	go func() {
		// No sender can reach p.tasks once inflight drains.
		p.inflight.Wait()
		close(p.tasks)
		p.workers.Wait()
		p.ids.Close()
		close(p.terminated)
	}()
}

// ShutdownNow stops accepting tasks and returns queued tasks that were not
// started. Workers skip whatever they dequeue from now on, so some dropped
// tasks may not be returned. Running tasks are not interrupted.
func (p *Pool) ShutdownNow() []Task {
	p.abort.Store(true)
	p.Shutdown()

	var dropped []Task
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return dropped
			}
			dropped = append(dropped, task)
		default:
			return dropped
		}
	}
}

// IsShutdown reports whether Shutdown was called.
func (p *Pool) IsShutdown() bool {
	p.stateLock.RLock()
	defer p.stateLock.RUnlock()
	return p.shutdown
}

// IsTerminated reports whether the pool shut down and every worker exited.
func (p *Pool) IsTerminated() bool {
	select {
	case <-p.terminated:
		return true
	default:
		return false
	}
}

// AwaitTermination waits up to timeout on the pool's clock.
func (p *Pool) AwaitTermination(timeout time.Duration) bool {
	if p.IsTerminated() {
		return true
	}
	select {
	case <-p.terminated:
		return true
	case <-p.clock.After(timeout):
		return p.IsTerminated()
	}
}

// Close shuts the pool down and waits for termination.
func (p *Pool) Close() {
	p.Shutdown()
	<-p.terminated
}

// run is a worker loop. The worker's stack is created here, at the start of
// its execution context.
func (p *Pool) run(workerID int) {
	defer p.workers.Done()

	ctx, _ := Start(context.Background())
	for task := range p.tasks {
		if p.abort.Load() {
			continue
		}
		p.safeRun(ctx, workerID, task)
	}
}

// safeRun runs task, turning a panic into a Failure.
func (p *Pool) safeRun(ctx context.Context, workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(ctx, workerID, newPanicError(r))
		}
	}()
	task(ctx)
}

func (p *Pool) fail(ctx context.Context, workerID int, perr *PanicError) {
	p.failures.Add(1)

	// Wrapped tasks have already restored the worker's stack here, so the
	// breadcrumbs of a context-capturing panic value take precedence.
	crumbs, ok := ContextOf(perr)
	if !ok {
		crumbs = Current(ctx)
	}

	p.executeHandlers(Failure{
		ID:       p.ids.Get(),
		WorkerID: workerID,
		Err:      perr,
		Context:  crumbs,
		Time:     p.clock.Now(),
	})
}

// executeHandlers calls all registered handlers with the failure.
func (p *Pool) executeHandlers(f Failure) {
	p.handlersLock.RLock()
	if len(p.handlers) == 0 {
		p.handlersLock.RUnlock()
		return
	}

	handlers := make([]handlerEntry, len(p.handlers))
	copy(handlers, p.handlers)
	hook := p.panicHook
	p.handlersLock.RUnlock()

	for _, h := range handlers {
		if h.async {
			go safeCall(h, f, hook)
		} else {
			safeCall(h, f, hook)
		}
	}
}

func safeCall(entry handlerEntry, f Failure, hook func(uint64, interface{})) {
	defer func() {
		if r := recover(); r != nil {
			if hook != nil {
				hook(entry.id, r)
			}
		}
	}()
	entry.handler(f)
}

var _ Executor = (*Pool)(nil)
