package http

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Job is a unit of work run by exactly one worker.
type Job func()

// WorkerPool runs jobs on a fixed set of long-lived worker goroutines fed by
// a shared FIFO queue.
type WorkerPool struct {
	jobs   chan Job
	size   int
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewWorkerPool(size int, logger *slog.Logger) (*WorkerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrZeroWorkers, size)
	}

	if logger == nil {
		logger = slog.Default()
	}

	wp := &WorkerPool{
		jobs:   make(chan Job, ChannelBufferSize),
		size:   size,
		logger: logger,
	}

	wp.wg.Add(size)
	for id := range size {
		go wp.work(id)
	}

	return wp, nil
}

func (wp *WorkerPool) Size() int {
	return wp.size
}

// Execute queues job. It blocks while the queue is full.
func (wp *WorkerPool) Execute(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	wp.jobs <- job
	return nil
}

// Close stops accepting jobs, lets the workers finish what is queued and
// waits for them to exit.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()
}

func (wp *WorkerPool) work(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		wp.run(id, job)
	}
}

// run isolates a job so a panic only ends that job.
func (wp *WorkerPool) run(id int, job Job) {
	defer func() {
		if recovered := recover(); recovered != nil {
			wp.logger.Error("job panic recovered",
				"worker", id,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
		}
	}()

	job()
}
