package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/testutil"
)

func TestQueueReturnsSameInstance(t *testing.T) {
	r := NewRegistry(config.RedisConfig{Host: "localhost", Port: "6379"}, config.QueueConfig{}, testutil.DiscardLogger())
	defer r.Shutdown()

	q1 := r.Queue(AuthQueue)
	q2 := r.Queue(AuthQueue)
	assert.Same(t, q1, q2)
	assert.Equal(t, AuthQueue, q1.Name())
	assert.NotSame(t, q1, r.Queue(UserQueue))
}

func TestBoundHandlerLimitsConcurrency(t *testing.T) {
	const limit = 2
	const jobs = 10

	var inFlight, peak, processed int64
	handler := BoundHandler(limit, func(ctx context.Context, payload []byte) error {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		atomic.AddInt64(&processed, 1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := asynq.NewTask("auth:addAuthUserToDB", []byte(`{}`))
			require.NoError(t, handler.ProcessTask(context.Background(), task))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(jobs), atomic.LoadInt64(&processed))
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(limit),
		"no more than %d jobs of one type may run at once", limit)
}

func TestBoundHandlerPropagatesErrors(t *testing.T) {
	wantErr := assert.AnError
	handler := BoundHandler(1, func(ctx context.Context, payload []byte) error {
		return wantErr
	})

	task := asynq.NewTask("user:addUserToDB", []byte(`{}`))
	err := handler.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, wantErr)
}

func TestBoundHandlerHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	handler := BoundHandler(1, func(ctx context.Context, payload []byte) error {
		<-release
		return nil
	})

	// Occupy the single slot.
	go handler.ProcessTask(context.Background(), asynq.NewTask("email:sendEmail", nil))
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := handler.ProcessTask(ctx, asynq.NewTask("email:sendEmail", nil))
	assert.Error(t, err, "a waiter should give up when its context ends")
	close(release)
}
