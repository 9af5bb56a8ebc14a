package loyalty

import (
	"context"

	"go.uber.org/zap"
)

type Worker struct {
	ID         int
	WorkerPool chan chan WorkRequest
	JobChannel chan WorkRequest
	quit       chan bool
	program    *CardProgram
}

type WorkRequest struct {
	Event *Event
	Ctx   context.Context
}

func NewWorker(id int, workerPool chan chan WorkRequest, program *CardProgram) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan WorkRequest),
		quit:       make(chan bool),
		program:    program,
	}
}

func (w Worker) Start() {
	go func() {
		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.program.logger.Info("processing event",
					zap.String("event_type", string(job.Event.Type)))

				err := w.program.processEvent(job.Ctx, job.Event)

				if err != nil {
					w.program.logger.Error("failed to process event",
						zap.Error(err),
						zap.String("event_type", string(job.Event.Type)))
				} else {
					w.program.logger.Info("event processed",
						zap.String("event_type", string(job.Event.Type)))
				}

			case <-w.quit:
				return
			}
		}
	}()
}

func (w Worker) Stop() {
	close(w.quit)
}
