package loyalty

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	minTickerInterval = 5 * time.Second
	maxTickerInterval = 30 * time.Second
)

type Dispatcher struct {
	WorkerPool chan chan WorkRequest
	maxWorkers int
	jobQueue   chan WorkRequest
	program    *CardProgram
	workers    []Worker
	stop       chan bool
	mu         sync.Mutex
}

func NewDispatcher(maxWorkers int, jobQueueSize int, program *CardProgram) *Dispatcher {
	pool := make(chan chan WorkRequest, maxWorkers)
	return &Dispatcher{
		WorkerPool: pool,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan WorkRequest, jobQueueSize),
		program:    program,
		stop:       make(chan bool),
	}
}

// Submit enqueues an event for asynchronous processing.
func (d *Dispatcher) Submit(ctx context.Context, event *Event) {
	select {
	case d.jobQueue <- WorkRequest{Event: event, Ctx: ctx}:
	default:
		d.program.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)))
	}
}

func (d *Dispatcher) Run() {
	for i := 0; i < d.maxWorkers; i++ {
		worker := NewWorker(i+1, d.WorkerPool, d.program)
		worker.Start()
		d.workers = append(d.workers, worker)
	}

	go d.dispatch()
}

func (d *Dispatcher) dispatch() {
	tickerInterval := 10 * time.Second
	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()
	var wg sync.WaitGroup

	for {
		select {
		case job := <-d.jobQueue:
			wg.Add(1)
			go func(job WorkRequest) {
				defer wg.Done()
				select {
				case jobChannel := <-d.WorkerPool:
					select {
					case jobChannel <- job:
					case <-job.Ctx.Done():
						d.program.logger.Warn("event context canceled before processing",
							zap.Error(job.Ctx.Err()),
							zap.String("event_type", string(job.Event.Type)))
					}
				case <-job.Ctx.Done():
					d.program.logger.Warn("event context canceled while waiting for a worker",
						zap.Error(job.Ctx.Err()),
						zap.String("event_type", string(job.Event.Type)))
				}
			}(job)

		case <-ticker.C:
			d.adjustWorkerPool()

			// Resize checks speed up while a backlog is building.
			backlog := len(d.jobQueue)
			switch {
			case backlog > cap(d.jobQueue)/2:
				tickerInterval = minTickerInterval
			case backlog > 0:
				tickerInterval = 10 * time.Second
			default:
				tickerInterval = maxTickerInterval
			}

			ticker.Reset(tickerInterval)
		case <-d.stop:
			wg.Wait()
			return
		}
	}
}

func (d *Dispatcher) adjustWorkerPool() {
	d.mu.Lock()
	defer d.mu.Unlock()

	backlog := len(d.jobQueue)
	current := len(d.workers)

	if backlog > cap(d.jobQueue)/2 && current < d.maxWorkers {
		worker := NewWorker(current+1, d.WorkerPool, d.program)
		worker.Start()
		d.workers = append(d.workers, worker)
		d.program.logger.Info("added worker", zap.Int("worker_id", worker.ID))
	}

	if backlog == 0 && current > 1 {
		worker := d.workers[len(d.workers)-1]
		worker.Stop()
		d.workers = d.workers[:len(d.workers)-1]
		d.program.logger.Info("removed idle worker", zap.Int("worker_id", worker.ID))
	}

	d.cleanupStoppedWorkers()

	if backlog > 0 && len(d.workers) == 0 {
		worker := NewWorker(1, d.WorkerPool, d.program)
		worker.Start()
		d.workers = append(d.workers, worker)
		d.program.logger.Info("added worker for non-empty queue")
	}
}

func (d *Dispatcher) cleanupStoppedWorkers() {
	var active []Worker
	for _, worker := range d.workers {
		select {
		case <-worker.quit:
			d.program.logger.Info("cleaned up stopped worker", zap.Int("worker_id", worker.ID))
		default:
			active = append(active, worker)
		}
	}
	d.workers = active
}

func (d *Dispatcher) Stop() {
	close(d.stop)
	var wg sync.WaitGroup

	d.mu.Lock()
	for _, worker := range d.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			w.Stop()
		}(worker)
	}
	d.mu.Unlock()

	wg.Wait()
}
