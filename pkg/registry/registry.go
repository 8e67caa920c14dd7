// Package registry implements the pending-operation map every dispatched
// operation that expects a reply is tracked in: it owns the deadline timer,
// drives each pending op's aggregate.OpData, and fulfills a one-shot future
// exactly once per task-id.
//
// Registry is generic over the reply payload type, one instance per
// payload family: collapsing every family into a dynamic value would lose
// exhaustiveness at the façade boundary.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/maidnode/internal/logger"
	"github.com/marmos91/maidnode/pkg/aggregate"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
)

const defaultSweepInterval = 100 * time.Millisecond

// Sink receives the registry's completion and occupancy events for export
// as metrics. Registered via SetSink; a Registry with no sink set uses a
// no-op implementation, so instrumentation is strictly opt-in.
type Sink interface {
	// ObserveCompletion records a pending op reaching completion, either by
	// success quorum (viaFallback false) or by the most-frequent-error
	// fallback (viaFallback true).
	ObserveCompletion(family string, viaFallback bool)
	// ObserveTimeout records a pending op forced to completion by its
	// deadline, whatever failures it had recorded by then.
	ObserveTimeout(family string)
	// SetPending reports the current number of live pending ops for family.
	SetPending(family string, n int)
}

type noopSink struct{}

func (noopSink) ObserveCompletion(string, bool) {}
func (noopSink) ObserveTimeout(string)          {}
func (noopSink) SetPending(string, int)         {}

// Result is what a Future resolves to: the reply the aggregator chose (be
// it a success or a failure-bearing value of R), or a registry-level error
// (Timeout, Cancelled) when no reply-derived value exists. Callers that
// need to translate a successful R into a typed error (e.g. a ReturnCode
// reply) do so themselves — Registry does not interpret R's contents
// beyond what its injected Classifier requires.
type Result[R any] struct {
	Value R
	Err   error
}

// Future is the one-shot completion sink a pending operation's caller waits
// on. It is fulfilled exactly once, from outside the Registry's lock.
type Future[R any] struct {
	ch chan Result[R]
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{ch: make(chan Result[R], 1)}
}

func (f *Future[R]) fulfill(value R, err error) {
	f.ch <- Result[R]{Value: value, Err: err}
}

// Wait blocks until the future is fulfilled or ctx is done, whichever comes
// first. A ctx cancellation here does not cancel the underlying pending op;
// call Registry.CancelTask for that.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case r := <-f.ch:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

type pendingOp[R any] struct {
	deadline      time.Time
	expectedCount int
	agg           *aggregate.OpData[R]
	future        *Future[R]
}

// Registry is the sole source of truth for a payload family's outstanding
// requests. All mutations happen under a single lock; the completion sink
// is always fulfilled after the lock is released.
type Registry[R any] struct {
	mu       sync.Mutex
	classify aggregate.Classifier[R]
	entries  map[ids.TaskId]*pendingOp[R]
	nextID   uint32
	now      func() time.Time

	name          string
	sweepInterval time.Duration
	sink          Sink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SetSink installs sink to receive this registry's completion and
// occupancy events. Passing nil restores the default no-op sink.
func (r *Registry[R]) SetSink(sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sink == nil {
		sink = noopSink{}
	}
	r.sink = sink
}

// New constructs a Registry for one payload family. name is used only for
// log correlation (e.g. "DataNameAndContentOrReturnCode"). sweepInterval
// controls how often the deadline sweep runs; callers that pass 0 get
// defaultSweepInterval.
func New[R any](name string, classify aggregate.Classifier[R], sweepInterval time.Duration) *Registry[R] {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	return &Registry[R]{
		classify:      classify,
		entries:       make(map[ids.TaskId]*pendingOp[R]),
		now:           time.Now,
		name:          name,
		sweepInterval: sweepInterval,
		sink:          noopSink{},
	}
}

// Start begins the background deadline sweep. It runs until Stop is called
// or ctx is cancelled.
func (r *Registry[R]) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run()
}

// Stop gracefully stops the sweep goroutine, blocking until it exits.
func (r *Registry[R]) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Registry[R]) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.sweep()
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// AddTask allocates a fresh task-id, arms a deadline at now+timeout, and
// returns the id (for embedding in the outbound envelope) alongside the
// Future the caller awaits. The id is guaranteed free in the map at return.
func (r *Registry[R]) AddTask(timeout time.Duration, successesRequired, expectedCount int) (ids.TaskId, *Future[R]) {
	if successesRequired < 1 {
		successesRequired = 1
	}
	if expectedCount < successesRequired {
		expectedCount = successesRequired
	}

	op := &pendingOp[R]{
		deadline:      r.now().Add(timeout),
		expectedCount: expectedCount,
		agg:           aggregate.New(r.classify, successesRequired),
		future:        newFuture[R](),
	}

	r.mu.Lock()
	id := r.allocateIDLocked()
	r.entries[id] = op
	r.mu.Unlock()

	logger.Debug("registry: task registered",
		"task_id", id.String(), "family", r.name,
		"timeout", timeout.String(), "expected_count", expectedCount,
		"successes_required", successesRequired)

	return id, op.future
}

// allocateIDLocked must be called with r.mu held. It skips the zero id and
// any id still live in the map, so wraparound of the 32-bit space cannot
// collide with a still-outstanding task.
func (r *Registry[R]) allocateIDLocked() ids.TaskId {
	for {
		r.nextID++
		id := ids.TaskId(r.nextID)
		if id == 0 {
			continue
		}
		if _, live := r.entries[id]; !live {
			return id
		}
	}
}

// AddResponse delivers a reply for task_id. A reply for an id with no live
// entry is a late reply and is dropped silently. Otherwise the reply is
// appended to the aggregator; if that pushes the op to a success quorum the
// future is fulfilled with the chosen reply. If the op has not reached
// quorum but has now collected expected_count replies, it is forced to
// completion via the aggregator's most-frequent-error fallback.
func (r *Registry[R]) AddResponse(taskID ids.TaskId, reply R) {
	r.mu.Lock()
	op, live := r.entries[taskID]
	if !live {
		r.mu.Unlock()
		logger.Debug("registry: dropping late reply", "task_id", taskID.String(), "family", r.name)
		return
	}

	value, done := op.agg.Append(reply)
	viaFallback := false
	if !done && op.agg.ResponseCount() >= op.expectedCount {
		if fv, ok := op.agg.Fallback(); ok {
			value, done, viaFallback = fv, true, true
		}
	}
	if done {
		delete(r.entries, taskID)
	}
	sink := r.sink
	r.mu.Unlock()

	if done {
		sink.ObserveCompletion(r.name, viaFallback)
		op.future.fulfill(value, nil)
	}
}

// CancelTask disarms the deadline for task_id and completes it with a
// Cancelled error. It is a no-op if the task is not live (already completed
// or never existed).
func (r *Registry[R]) CancelTask(taskID ids.TaskId) {
	r.mu.Lock()
	op, live := r.entries[taskID]
	if live {
		delete(r.entries, taskID)
	}
	r.mu.Unlock()

	if live {
		var zero R
		op.future.fulfill(zero, merrors.Cancelled(taskID))
		logger.Debug("registry: task cancelled", "task_id", taskID.String(), "family", r.name)
	}
}

// sweep forces Timeout completion on every pending op whose deadline has
// passed. Timeout always wins regardless of aggregator state — it is a
// registry-level failure, distinct from the expected_count fallback in
// AddResponse.
func (r *Registry[R]) sweep() {
	now := r.now()

	r.mu.Lock()
	var expired []struct {
		id ids.TaskId
		op *pendingOp[R]
	}
	for id, op := range r.entries {
		if !op.deadline.After(now) {
			expired = append(expired, struct {
				id ids.TaskId
				op *pendingOp[R]
			}{id, op})
		}
	}
	for _, e := range expired {
		delete(r.entries, e.id)
	}
	sink := r.sink
	pending := len(r.entries)
	r.mu.Unlock()

	sink.SetPending(r.name, pending)

	var zero R
	for _, e := range expired {
		sink.ObserveTimeout(r.name)
		e.op.future.fulfill(zero, merrors.Timeout(e.id))
		logger.Warn("registry: task timed out", "task_id", e.id.String(), "family", r.name)
	}
}

// Len reports the number of currently live pending operations, used by the
// diagnostics server and metrics exporter.
func (r *Registry[R]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
