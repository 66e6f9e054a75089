package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vytor/openingdrill/internal/logger"
)

var (
	ErrQueueFull   = errors.New("worker: queue full")
	ErrPoolStopped = errors.New("worker: pool stopped")
)

type Job interface {
	Run(context.Context) error
	Name() string
}

// Keyed jobs with the same key always run on the same worker, in submission
// order. Jobs without a key are spread round robin.
type Keyed interface {
	Key() string
}

// Pool runs jobs on a fixed set of goroutines, each with its own queue.
type Pool struct {
	mu      sync.RWMutex
	queues  []chan Job
	next    atomic.Uint64
	wg      sync.WaitGroup
	stopped bool
	cancel  context.CancelFunc
	log     *logger.Logger
}

// NewPool splits queueSize evenly across workers, at least one slot each.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	perWorker := (queueSize + workers - 1) / workers
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d workers and queue size %d", workers, queueSize)

	queues := make([]chan Job, workers)
	for i := range queues {
		queues[i] = make(chan Job, perWorker)
	}
	return &Pool{queues: queues, log: log}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info("starting worker pool with %d workers", len(p.queues))

	for i, queue := range p.queues {
		p.wg.Add(1)
		go func(id int, jobs <-chan Job) {
			defer p.wg.Done()
			workerLog := p.log.WithField("worker_id", id)
			workerLog.Debug("worker started")

			for job := range jobs {
				p.run(ctx, workerLog, job)
			}
			workerLog.Debug("worker shutting down (queue closed)")
		}(i+1, queue)
	}
}

func (p *Pool) run(ctx context.Context, workerLog *logger.Logger, job Job) {
	jobLog := workerLog.WithField("job", job.Name())
	jobLog.Debug("starting job")
	start := time.Now()

	jobCtx := logger.NewContext(ctx, jobLog)

	if err := job.Run(jobCtx); err != nil {
		jobLog.Error("job failed after %v: %v", time.Since(start), err)
	} else {
		jobLog.Debug("job completed in %v", time.Since(start))
	}
}

// Stop drains queued jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, queue := range p.queues {
		close(queue)
	}
	p.mu.Unlock()

	p.log.Info("stopping worker pool")
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.log.Info("worker pool stopped")
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.queues[p.slot(job)] <- job:
		p.log.Debug("submitted job: %s", job.Name())
		return nil
	default:
		p.log.Warn("queue full, dropping job: %s", job.Name())
		return ErrQueueFull
	}
}

func (p *Pool) slot(job Job) int {
	n := uint64(len(p.queues))
	if k, ok := job.(Keyed); ok {
		return int(xxhash.Sum64String(k.Key()) % n)
	}
	return int((p.next.Add(1) - 1) % n)
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	total := 0
	for _, queue := range p.queues {
		total += len(queue)
	}
	return total
}
