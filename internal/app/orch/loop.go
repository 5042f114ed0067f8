package orch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs submitted handlers one at a time, each to completion,
// so the orchestrator state needs no further locking.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

func NewLoop(queue int) *Loop {
	if queue <= 0 {
		queue = 1
	}
	return &Loop{
		tasks: make(chan func(), queue),
		done:  make(chan struct{}),
	}
}

// Run blocks until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	log.Info().Str("module", "orch.loop").Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.loop").Msg("event loop stopped")
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch.loop").Interface("panic", r).Msg("handler panicked")
		}
	}()
	fn()
}

// Do queues fn. It blocks while the queue is full.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Do(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
