package stategen

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-chain/statecore/beacon-chain/state"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

func newTestQueue(ctx context.Context) *Queue {
	return NewQueue(ctx, NewMetrics(prometheus.NewRegistry()))
}

func TestQueue_SubmitRoundTrip(t *testing.T) {
	q := newTestQueue(context.Background())
	go q.Run()
	defer q.Cancel()

	want := dummyStateForTest(5)
	got, err := q.Submit(context.Background(), RegenRequest{
		Caller: "test", Entrypoint: "unit",
		Fn: func(ctx context.Context) (state.State, error) { return want, nil },
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestQueue_FIFOOrder(t *testing.T) {
	q := newTestQueue(context.Background())
	go q.Run()
	defer q.Cancel()

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Submit(context.Background(), RegenRequest{
				Caller: "test", Entrypoint: "fifo",
				Fn: func(ctx context.Context) (state.State, error) {
					mu.Lock()
					order = append(order, i)
					mu.Unlock()
					return nil, nil
				},
			})
		}()
		// Stagger submission so the jobs reach the channel in index
		// order.
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestQueue_AtMostOneExecution(t *testing.T) {
	q := newTestQueue(context.Background())
	go q.Run()
	defer q.Cancel()

	var inFlight int32
	var maxObserved int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Submit(context.Background(), RegenRequest{
				Caller: "test", Entrypoint: "race",
				Fn: func(ctx context.Context) (state.State, error) {
					n := atomic.AddInt32(&inFlight, 1)
					for {
						max := atomic.LoadInt32(&maxObserved)
						if n <= max || atomic.CompareAndSwapInt32(&maxObserved, max, n) {
							break
						}
					}
					time.Sleep(time.Millisecond)
					atomic.AddInt32(&inFlight, -1)
					return nil, nil
				},
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxObserved))
}

// TestQueue_Backpressure asserts the queue-depth bound: with the
// worker blocked on one in-flight job, pending-plus-in-flight must
// never exceed MaxQueue. The blocker itself occupies one slot, so only
// MaxQueue-1 further submissions are admitted; submitting 257 jobs
// total (the blocker, 255 fills and one overflow) means the 257th
// submission — the overflow — fails synchronously with QueueFull.
func TestQueue_Backpressure(t *testing.T) {
	q := newTestQueue(context.Background())
	go q.Run()
	defer q.Cancel()

	block := make(chan struct{})
	// Occupy the single worker so the channel fills up behind it.
	firstDone := make(chan struct{})
	go func() {
		_, _ = q.Submit(context.Background(), RegenRequest{
			Caller: "test", Entrypoint: "blocker",
			Fn: func(ctx context.Context) (state.State, error) {
				close(firstDone)
				<-block
				return nil, nil
			},
		})
	}()
	<-firstDone

	var wg sync.WaitGroup
	for i := 0; i < MaxQueue-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Submit(context.Background(), RegenRequest{
				Caller: "test", Entrypoint: "fill",
				Fn: func(ctx context.Context) (state.State, error) { return nil, nil },
			})
			assert.NoError(t, err)
		}()
	}
	// Give the fill goroutines a chance to land in the channel, filling
	// the backlog to exactly MaxQueue (1 in-flight + (MaxQueue-1) pending).
	time.Sleep(50 * time.Millisecond)

	_, err := q.Submit(context.Background(), RegenRequest{
		Caller: "test", Entrypoint: "overflow",
		Fn: func(ctx context.Context) (state.State, error) { return nil, nil },
	})
	require.Error(t, err)
	var stErr *Error
	require.True(t, stderrors.As(err, &stErr))
	assert.Equal(t, KindQueueFull, stErr.Kind)

	close(block)
	wg.Wait()
}

func TestQueue_CancelRejectsPendingAndFuture(t *testing.T) {
	q := newTestQueue(context.Background())
	go q.Run()

	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = q.Submit(context.Background(), RegenRequest{
			Caller: "test", Entrypoint: "blocker",
			Fn: func(ctx context.Context) (state.State, error) {
				close(started)
				<-block
				return nil, nil
			},
		})
	}()
	<-started

	pendingErr := make(chan error, 1)
	go func() {
		_, err := q.Submit(context.Background(), RegenRequest{
			Caller: "test", Entrypoint: "pending",
			Fn: func(ctx context.Context) (state.State, error) { return nil, nil },
		})
		pendingErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	q.Cancel()
	close(block)

	err := <-pendingErr
	require.Error(t, err)
	var stErr *Error
	require.True(t, stderrors.As(err, &stErr))
	assert.Equal(t, KindCancelled, stErr.Kind)

	_, err = q.Submit(context.Background(), RegenRequest{
		Caller: "test", Entrypoint: "after-cancel",
		Fn: func(ctx context.Context) (state.State, error) { return nil, nil },
	})
	require.Error(t, err)
	require.True(t, stderrors.As(err, &stErr))
	assert.Equal(t, KindCancelled, stErr.Kind)
}

func dummyStateForTest(slot int) state.State {
	return state.New(primitives.Slot(slot), [32]byte{byte(slot)}, nil, nil, nil, nil)
}
