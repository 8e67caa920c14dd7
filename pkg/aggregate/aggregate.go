// Package aggregate implements the incremental response reducer every
// pending operation drives its replies through: a running success quorum
// with a most-frequent-error fallback. Counters update on each append
// rather than recomputing over the full reply list per reply.
package aggregate

import (
	"sync"

	"github.com/marmos91/maidnode/pkg/merrors"
)

// Classifier tells the aggregator how to read a reply of type R: whether it
// carries a value (success) or a structured error, and which error code to
// bucket a failure under. For this module's union and ReturnCode reply
// payloads the success predicate is the reply's own IsSuccess method (the
// value-bearing arm of the union, never the ReturnCode one); PmidHealth
// replies are all counted as successes.
type Classifier[R any] struct {
	IsSuccess func(reply R) bool
	ErrorCode func(reply R) merrors.Code
}

// OpData is the generic, incremental response reducer: first reply to push
// the success count to the quorum wins; failing that, the most frequent
// error. Callers append replies from any goroutine (it locks internally)
// and read back the single completion it ever fires.
type OpData[R any] struct {
	mu sync.Mutex

	classify          Classifier[R]
	successesRequired int

	completed    bool
	successCount int

	freq              map[merrors.Code]int
	firstReplyForCode map[merrors.Code]R
	leaderCode        merrors.Code
	leaderCount       int
	leaderSet         bool
}

// New constructs an OpData with the given classifier and success quorum.
// successesRequired must be ≥ 1.
func New[R any](classify Classifier[R], successesRequired int) *OpData[R] {
	return &OpData[R]{
		classify:          classify,
		successesRequired: successesRequired,
		freq:              make(map[merrors.Code]int),
		firstReplyForCode: make(map[merrors.Code]R),
	}
}

// Append records a new reply. If this reply pushes the cumulative success
// count to successesRequired, it returns that reply and true: the op is now
// complete and the caller must fulfill the completion sink with it. A
// failure reply, or a success reply that has not yet reached quorum,
// returns the zero value and false. Replies arriving after completion are
// ignored — the monotone one-shot guarantee.
func (o *OpData[R]) Append(reply R) (result R, done bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.completed {
		var zero R
		return zero, false
	}

	if o.classify.IsSuccess(reply) {
		o.successCount++
		if o.successCount >= o.successesRequired {
			o.completed = true
			return reply, true
		}
		var zero R
		return zero, false
	}

	code := o.classify.ErrorCode(reply)
	if _, seen := o.firstReplyForCode[code]; !seen {
		o.firstReplyForCode[code] = reply
	}
	o.freq[code]++
	if o.freq[code] > o.leaderCount {
		o.leaderCount = o.freq[code]
		o.leaderCode = code
		o.leaderSet = true
	}

	var zero R
	return zero, false
}

// Fallback forces completion using the most-frequent-error reply seen so
// far, breaking ties by which code first reached the winning frequency.
// Callers invoke this when no more replies will arrive: the configured
// expected_count has been reached, or the deadline fired. It returns the
// zero value and false if the op already completed, or if no failure has
// ever been recorded; in the latter case the op is still marked completed.
func (o *OpData[R]) Fallback() (result R, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.completed {
		var zero R
		return zero, false
	}
	o.completed = true

	if !o.leaderSet {
		var zero R
		return zero, false
	}
	return o.firstReplyForCode[o.leaderCode], true
}

// Completed reports whether this OpData has already fired its one-shot
// completion, via either Append or Fallback.
func (o *OpData[R]) Completed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed
}

// ResponseCount returns the number of replies recorded so far (successes
// plus failures), used by the Registry to decide when expected_count has
// been reached.
func (o *OpData[R]) ResponseCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	count := o.successCount
	for _, n := range o.freq {
		count += n
	}
	return count
}
