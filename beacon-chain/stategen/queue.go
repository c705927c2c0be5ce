package stategen

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/lodestone-chain/statecore/beacon-chain/state"
)

// MaxQueue bounds the regen backlog: pending plus in-flight jobs never
// exceed this count.
const MaxQueue = 256

// RegenRequest is one unit of work the Regeneration Engine hands to
// the queue: a closure that performs the actual cache/collaborator
// calls, labeled for metrics by caller and entrypoint.
type RegenRequest struct {
	Caller     string
	Entrypoint string
	Fn         func(ctx context.Context) (state.State, error)
}

type jobResult struct {
	state state.State
	err   error
}

type job struct {
	id     string
	req    RegenRequest
	ctx    context.Context
	result chan jobResult
}

// Queue is the bounded, single-consumer regen job queue. Submissions
// that would push pending-plus-in-flight past MaxQueue fail
// synchronously with QueueFull; jobs are served FIFO by one worker
// goroutine, so at most one regen executes at a time. A
// golang.org/x/sync/semaphore.Weighted(1) is additionally held for
// the duration of each job, an independently-checkable proof of that
// same invariant.
//
// depth counts admitted-but-not-yet-completed jobs (pending and
// in-flight together); it is what Submit checks against MaxQueue,
// not the channel's buffer length. The channel itself is sized to
// MaxQueue too, so once a submission is admitted under the depth
// check the send to jobs never blocks: the single worker only ever
// holds one job outside the channel at a time, and depth is not
// decremented until that job's result has been delivered.
type Queue struct {
	jobs    chan *job
	depth   int64
	runCtx  context.Context
	cancel  context.CancelFunc
	sem     *semaphore.Weighted
	metrics *Metrics
}

// NewQueue returns a Queue whose lifetime is tied to parent: cancel it
// (via Cancel) to drain pending work and reject new submissions.
func NewQueue(parent context.Context, metrics *Metrics) *Queue {
	runCtx, cancel := context.WithCancel(parent)
	return &Queue{
		jobs:    make(chan *job, MaxQueue),
		runCtx:  runCtx,
		cancel:  cancel,
		sem:     semaphore.NewWeighted(1),
		metrics: metrics,
	}
}

// Run drains the queue until Cancel is called. It should be started
// in its own goroutine by the host.
func (q *Queue) Run() {
	for {
		select {
		case <-q.runCtx.Done():
			q.drainPending()
			return
		case j := <-q.jobs:
			q.execute(j)
		}
	}
}

func (q *Queue) drainPending() {
	for {
		select {
		case j := <-q.jobs:
			j.result <- jobResult{err: errCancelled()}
			q.release()
		default:
			return
		}
	}
}

func (q *Queue) execute(j *job) {
	defer q.release()

	if err := q.sem.Acquire(j.ctx, 1); err != nil {
		j.result <- jobResult{err: errCancelled()}
		return
	}
	defer q.sem.Release(1)

	start := time.Now()
	st, err := j.req.Fn(j.ctx)
	q.metrics.observeDuration(j.req.Caller, j.req.Entrypoint, time.Since(start).Seconds())

	select {
	case <-q.runCtx.Done():
		j.result <- jobResult{err: errCancelled()}
		return
	default:
	}

	if err != nil {
		q.metrics.observeError(j.req.Caller, j.req.Entrypoint)
	}
	j.result <- jobResult{state: st, err: err}
}

// release decrements depth once a job (pending or in-flight) has been
// fully resolved, freeing its slot in the MaxQueue bound.
func (q *Queue) release() {
	n := atomic.AddInt64(&q.depth, -1)
	q.metrics.setQueueDepth(int(n))
}

// Submit enqueues req and blocks until the worker has executed it (or
// the queue was cancelled). It never retries.
func (q *Queue) Submit(ctx context.Context, req RegenRequest) (state.State, error) {
	select {
	case <-q.runCtx.Done():
		return nil, errCancelled()
	default:
	}

	if !q.admit() {
		return nil, errQueueFull()
	}

	j := &job{id: uuid.NewString(), req: req, ctx: ctx, result: make(chan jobResult, 1)}

	select {
	case q.jobs <- j:
	default:
		// Unreachable under correct bookkeeping: admit() only
		// succeeds while depth < MaxQueue, and the channel shares
		// that same capacity with a single worker draining it, so a
		// successful admission always has room. Release the slot and
		// fail closed rather than block if this invariant is ever
		// violated.
		q.release()
		return nil, errQueueFull()
	}

	q.metrics.observeEnqueue(req.Caller, req.Entrypoint)
	log.WithField("job", j.id).WithField("entrypoint", req.Entrypoint).Trace("enqueued regen job")

	select {
	case res := <-j.result:
		return res.state, res.err
	case <-q.runCtx.Done():
		select {
		case res := <-j.result:
			return res.state, res.err
		default:
			return nil, errCancelled()
		}
	}
}

// admit reserves one of MaxQueue pending-plus-in-flight slots,
// reporting false if the backlog is already full.
func (q *Queue) admit() bool {
	for {
		cur := atomic.LoadInt64(&q.depth)
		if cur >= MaxQueue {
			return false
		}
		if atomic.CompareAndSwapInt64(&q.depth, cur, cur+1) {
			q.metrics.setQueueDepth(int(cur + 1))
			return true
		}
	}
}

// Cancel raises the cancellation signal: every pending job already in
// the channel is drained and rejected with Cancelled, new submissions
// are rejected immediately, and any job currently executing reports
// Cancelled once it returns.
func (q *Queue) Cancel() {
	q.cancel()
}

// Len reports the current backlog depth (pending, not in-flight).
func (q *Queue) Len() int {
	return len(q.jobs)
}
