package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/pkg/logger"
)

var ErrPoolClosed = errors.New("worker pool is shut down")

// Job is one unit of work. Run receives a context bounded by the pool's unit timeout.
type Job struct {
	Name string
	Run  func(ctx context.Context) error

	ctx  context.Context
	done func(error)
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing job", "worker_id", w.ID, "job", job.Name)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	MaxWorkers   int
	JobQueueSize int
	UnitTimeout  time.Duration
}

// Pool runs jobs on a fixed set of workers. A failing or panicking job only
// fails itself.
type Pool struct {
	logger      *slog.Logger
	unitTimeout time.Duration

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
	closeOnce  sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewPool(config Config, logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = internal.DefaultMaxWorkers
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = internal.DefaultJobQueueSize
	}

	p := &Pool{
		logger:      logger,
		unitTimeout: config.UnitTimeout,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan Job, jobQueueSize),
		workerPool:  make(chan chan Job, maxWorkers),
		ctx:         ctx,
		cancel:      cancel,
	}

	p.start()

	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(p.ctx, &p.wg, p.process)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					job.done(ErrPoolClosed)
					return
				}
			case <-p.ctx.Done():
				job.done(ErrPoolClosed)
				return
			}
		case <-p.ctx.Done():
			p.logger.Debug("dispatcher shutting down")
			return
		}
	}
}

func (p *Pool) process(job Job) {
	ctx, cancel := internal.WithTimeout(job.ctx, p.unitTimeout)
	defer cancel()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job %s panicked: %v", job.Name, r)
			}
		}()
		err = job.Run(ctx)
	}()

	job.done(err)
}

// Submit queues job and returns once it is accepted, not once it ran.
func (p *Pool) Submit(ctx context.Context, job Job, done func(error)) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no run func", job.Name)
	}
	job.ctx = ctx
	job.done = done
	if job.done == nil {
		job.done = func(error) {}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

type Result struct {
	Total  int
	Failed int
	Errors []error
}

func (r Result) Succeeded() int {
	return r.Total - r.Failed
}

// RunBatch runs jobs concurrently and waits for all of them. Failures are
// collected, never propagated to siblings.
func (p *Pool) RunBatch(ctx context.Context, jobs []Job) Result {
	result := Result{Total: len(jobs)}
	if len(jobs) == 0 {
		return result
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	fail := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Failed++
		result.Errors = append(result.Errors, fmt.Errorf("%s: %w", name, err))
	}

	log := logger.From(ctx)
	for _, job := range jobs {
		job := job
		wg.Add(1)
		err := p.Submit(ctx, job, func(err error) {
			defer wg.Done()
			if err != nil {
				log.Error("job failed", "unit", job.Name, "error", err)
				fail(job.Name, err)
			}
		})
		if err != nil {
			wg.Done()
			log.Error("job not accepted", "unit", job.Name, "error", err)
			fail(job.Name, err)
		}
	}

	wg.Wait()
	return result
}

func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.logger.Info("shutting down worker pool")
		p.cancel()

		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.wg.Wait()

		for {
			select {
			case job := <-p.jobQueue:
				job.done(ErrPoolClosed)
			default:
				p.logger.Info("worker pool shutdown complete")
				return
			}
		}
	})
}
