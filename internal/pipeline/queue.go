package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job identifies one queued extraction run.
type Job struct {
	PersonID    uuid.UUID
	InvoiceID   uuid.UUID
	SubmittedAt time.Time
}

// Queue fans queued jobs out to a fixed set of workers. Runs are logically
// independent; each touches only its own invoice record. Jobs carry no
// deadline of their own; the structuring client's transport timeout is the
// only limit on a run.
type Queue struct {
	pipe    *Pipeline
	logger  *slog.Logger
	workers int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewQueue(pipe *Pipeline, logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		pipe:    pipe,
		logger:  logger,
		workers: 2,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					if err := q.pipe.Process(context.Background(), job.PersonID, job.InvoiceID); err != nil {
						q.logger.Error("extraction failed",
							"worker_id", workerID, "invoice_id", job.InvoiceID, "error", err)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands one invoice to the workers. A full channel blocks the caller
// rather than dropping the job; a closed queue drops it with a warning.
func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "invoice_id", job.InvoiceID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued invoice for extraction",
			"person_id", job.PersonID, "invoice_id", job.InvoiceID)
	default:
		q.logger.Warn("queue full, applying backpressure", "invoice_id", job.InvoiceID)
		q.ch <- job
	}
	return nil
}

// Shutdown stops intake and waits for in-flight jobs until ctx expires.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
