/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrLoopClosed is returned when work is handed to a closed loop.
var ErrLoopClosed = errors.New("scheduler: loop closed")

// Task is a unit of work executed on a loop. The context carries the loop
// and is never cancelled by the loop itself.
type Task func(ctx context.Context)

// Loop executes tasks one after another on a single goroutine, in the
// order they were posted. The queue is unbounded, so posting never blocks.
type Loop struct {
	name string
	base context.Context

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool
	done   chan struct{}
}

type (
	loopKey    struct{}
	runningKey struct{}
)

// New starts a loop.
func New(name string) *Loop {
	l := &Loop{
		name: name,
		done: make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	l.base = l.running(context.Background())
	go l.run()
	log.Debug("started loop {{loop}}", "loop", name)
	return l
}

func (l *Loop) Name() string {
	return l.name
}

func (l *Loop) String() string {
	return fmt.Sprintf("loop %s", l.name)
}

// FromContext returns the loop bound to ctx, nil if there is none.
func FromContext(ctx context.Context) *Loop {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(loopKey{}).(*Loop)
	return l
}

// WithLoop binds l to ctx. Work derived from the returned context is
// associated with l, e.g. connections opened with it.
func WithLoop(ctx context.Context, l *Loop) context.Context {
	return context.WithValue(ctx, loopKey{}, l)
}

// OnLoop reports whether ctx is the context of a task executed by l.
// Contexts merely bound with WithLoop are not on the loop.
func (l *Loop) OnLoop(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	r, _ := ctx.Value(runningKey{}).(*Loop)
	return r == l
}

func (l *Loop) running(ctx context.Context) context.Context {
	return context.WithValue(WithLoop(ctx, l), runningKey{}, l)
}

// Post enqueues task. It fails only if the loop is closed.
func (l *Loop) Post(task Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoopClosed
	}
	l.queue = append(l.queue, task)
	l.cond.Signal()
	return nil
}

// Dispatch runs task inline if ctx already belongs to l, else it enqueues
// task and returns immediately. The task context keeps the values of ctx
// but not its cancellation.
func (l *Loop) Dispatch(ctx context.Context, task Task) error {
	if l.OnLoop(ctx) {
		l.execute(ctx, task)
		return nil
	}
	detached := l.running(context.WithoutCancel(ctx))
	return l.Post(func(context.Context) {
		task(detached)
	})
}

// Flush waits until all tasks posted before the call have been executed.
func (l *Loop) Flush(ctx context.Context) error {
	if l.OnLoop(ctx) {
		return errors.New("scheduler: Flush called on its own loop")
	}
	ch := make(chan struct{})
	if err := l.Post(func(context.Context) { close(ch) }); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks. Tasks already queued are still executed;
// use Wait to block until they are done. Close may be called from a task.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		l.cond.Signal()
	}
	return nil
}

// Wait blocks until a closed loop has executed its remaining tasks.
func (l *Loop) Wait() {
	<-l.done
}

// Done is closed when the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			log.Debug("loop {{loop}} finished", "loop", l.name)
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.execute(l.base, task)
	}
}

func (l *Loop) execute(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task on loop {{loop}} panicked", "loop", l.name, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task(ctx)
}
