package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrQueueFull = errors.New("dispatch queue full")

// DispatchPool is the default fire-and-forget transport: a bounded in-process
// job queue drained by a fixed set of workers. Enqueue never blocks; when the
// queue is full the job is dropped with a log line and the order's channels
// stay unsent (reconciliation is an external concern).
type DispatchPool struct {
	repo       OrderRepo
	dispatcher *Dispatcher
	jobs       chan DispatchJob
	jobTimeout time.Duration
	log        *slog.Logger

	wg      sync.WaitGroup
	once    sync.Once
	closeMu sync.Mutex
	closed  bool
}

func NewDispatchPool(repo OrderRepo, d *Dispatcher, queueSize, workers int, log *slog.Logger) *DispatchPool {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 4
	}
	p := &DispatchPool{
		repo:       repo,
		dispatcher: d,
		jobs:       make(chan DispatchJob, queueSize),
		jobTimeout: 30 * time.Second,
		log:        log,
	}
	p.start(workers)
	return p
}

func (p *DispatchPool) start(workers int) {
	p.once.Do(func() {
		for i := 0; i < workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for job := range p.jobs {
					p.process(job)
				}
			}()
		}
	})
}

func (p *DispatchPool) process(job DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	// Re-read the order so the sent-guard sees the latest channel states.
	order, err := p.repo.GetByID(ctx, job.OrderID)
	if err != nil {
		p.log.Error("dispatch job: order load failed", "order_id", job.OrderID, "err", err)
		return
	}
	p.dispatcher.Dispatch(ctx, order, job.Event)
}

func (p *DispatchPool) Enqueue(job DispatchJob) error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return ErrQueueFull
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and drains the queue.
func (p *DispatchPool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()
	p.wg.Wait()
}

var _ DispatchQueue = (*DispatchPool)(nil)
