package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingdrill/internal/worker"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestPool_RunsJobsInOrderWithOneWorker(t *testing.T) {
	p := worker.NewPool(1, 16)
	p.Start(context.Background())

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, p.Submit(funcJob{name: "append", fn: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
			return nil
		}}))
	}
	p.Stop()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestPool_SubmitDoesNotBlockWhenFull(t *testing.T) {
	p := worker.NewPool(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	p.Start(context.Background())

	require.NoError(t, p.Submit(funcJob{name: "block", fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	noop := funcJob{name: "noop", fn: func(context.Context) error { return nil }}
	require.NoError(t, p.Submit(noop))

	done := make(chan error, 1)
	go func() { done <- p.Submit(noop) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, worker.ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(release)
	p.Stop()
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := worker.NewPool(1, 1)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	err := p.Submit(funcJob{name: "late", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, worker.ErrPoolStopped)
}

func TestPool_FailingJobDoesNotStopWorker(t *testing.T) {
	p := worker.NewPool(1, 4)
	p.Start(context.Background())

	ran := make(chan struct{})
	require.NoError(t, p.Submit(funcJob{name: "fail", fn: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, p.Submit(funcJob{name: "ok", fn: func(context.Context) error {
		close(ran)
		return nil
	}}))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("second job never ran")
	}
	p.Stop()
}

type keyedJob struct {
	funcJob
	key string
}

func (j keyedJob) Key() string { return j.key }

func TestPool_SameKeyRunsInOrderAcrossWorkers(t *testing.T) {
	p := worker.NewPool(4, 32)
	p.Start(context.Background())

	var (
		mu  sync.Mutex
		got []string
	)
	record := func(s string, delay time.Duration) func(context.Context) error {
		return func(context.Context) error {
			time.Sleep(delay)
			mu.Lock()
			defer mu.Unlock()
			got = append(got, s)
			return nil
		}
	}
	require.NoError(t, p.Submit(keyedJob{funcJob{"first", record("a1", 30*time.Millisecond)}, "a"}))
	require.NoError(t, p.Submit(keyedJob{funcJob{"second", record("a2", 0)}, "a"}))
	require.NoError(t, p.Submit(keyedJob{funcJob{"third", record("a3", 0)}, "a"}))
	p.Stop()

	assert.Equal(t, []string{"a1", "a2", "a3"}, got)
	assert.Zero(t, p.QueueSize())
}

func TestPool_QueueSplitAcrossWorkers(t *testing.T) {
	p := worker.NewPool(2, 2)
	release := make(chan struct{})
	started := make(chan struct{})
	p.Start(context.Background())

	block := keyedJob{funcJob{"block", func(context.Context) error {
		close(started)
		<-release
		return nil
	}}, "k"}
	noop := keyedJob{funcJob{"noop", func(context.Context) error { return nil }}, "k"}

	require.NoError(t, p.Submit(block))
	<-started
	require.NoError(t, p.Submit(noop))
	assert.ErrorIs(t, p.Submit(noop), worker.ErrQueueFull, "one slot per worker")

	close(release)
	p.Stop()
}
