package service

import (
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher runs background tasks with bounded concurrency. Submit never
// blocks the caller; Wait blocks until every submitted task has finished.
type Dispatcher struct {
	sem     chan struct{}
	pending sync.WaitGroup
	logger  *slog.Logger
}

func NewDispatcher(workers int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		sem:    make(chan struct{}, workers),
		logger: logger.With("component", "dispatcher"),
	}
}

func (d *Dispatcher) Submit(task func()) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()

		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("task panicked", "panic", fmt.Sprint(r))
			}
		}()

		task()
	}()
}

func (d *Dispatcher) Wait() {
	d.pending.Wait()
}
