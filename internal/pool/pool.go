package pool

import (
	"context"
	"sync"
	"time"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/harvest"
	"xscraper/pkg/logger"
	"xscraper/pkg/session"
)

// Job is one target to harvest
type Job struct {
	Target session.Config
	// Force harvests a target the ledger already knows
	Force bool
}

// Result is the outcome of one job
type Result struct {
	Job     Job
	Harvest *harvest.Result
	// Skipped is set when the ledger already holds the target
	Skipped  bool
	Outputs  []string
	Error    error
	Duration time.Duration
}

// Runner executes one job. Implementations must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, job Job) Result
}

// Pool runs jobs on a fixed number of workers, one session per worker at a
// time
type Pool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	runner      Runner
	logger      logger.Logger
	stopOnce    sync.Once
}

// New creates a pool. Cancelling ctx cancels every running session.
func New(ctx context.Context, numWorkers int, runner Runner, log logger.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		runner:      runner,
		logger:      log.WithField("component", "pool"),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue, waits for queued jobs to finish and closes Results
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool...")
		close(p.jobQueue)
		p.wg.Wait()
		close(p.resultQueue)
		p.cancel()
		p.logger.Info("Worker pool stopped")
	})
}

// Cancel aborts running sessions. Their partial results are still delivered.
func (p *Pool) Cancel() {
	p.cancel()
}

// Submit queues a job. It blocks while the queue is full.
func (p *Pool) Submit(job Job) error {
	select {
	case <-p.ctx.Done():
		return errs.New(errs.ErrorTypeDriver, "pool.Submit", "worker pool is shutting down")
	default:
	}

	select {
	case p.jobQueue <- job:
		p.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"target": job.Target.Label(),
		})
		return nil
	case <-p.ctx.Done():
		return errs.New(errs.ErrorTypeDriver, "pool.Submit", "worker pool is shutting down")
	}
}

// Results returns the channel results are delivered on. It is closed by Stop.
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range p.jobQueue {
		if p.ctx.Err() != nil {
			// drain so Stop does not block; report what was never run
			p.resultQueue <- Result{Job: job, Error: p.ctx.Err()}
			continue
		}

		start := time.Now()
		result := p.runner.Run(p.ctx, job)
		result.Job = job
		result.Duration = time.Since(start)

		p.logger.DebugWithFields("Worker finished job", map[string]interface{}{
			"worker_id": id,
			"target":    job.Target.Label(),
			"skipped":   result.Skipped,
			"duration":  result.Duration,
		})

		p.resultQueue <- result
	}

	p.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// QueueSize returns the number of jobs waiting for a worker
func (p *Pool) QueueSize() int {
	return len(p.jobQueue)
}

// Workers returns the number of workers
func (p *Pool) Workers() int {
	return p.numWorkers
}
