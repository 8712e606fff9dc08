/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/scheduler"
	"github.com/suparena/modelstore/session"
)

// Stream is a lazily started observation of the instances of T.
type Stream[T any] struct {
	store *Store
	build QueryBuilder
}

// ObserveAll observes all instances of T.
func ObserveAll[T any](s *Store) *Stream[T] {
	return &Stream[T]{store: s}
}

// Observe observes the instances of T matching the query built by build.
func Observe[T any](s *Store, build QueryBuilder) *Stream[T] {
	return &Stream[T]{store: s, build: build}
}

// Subscription is the handle of a running observation.
type Subscription struct {
	id    string
	table string
	loop  *scheduler.Loop

	mu        sync.Mutex
	cancelled bool
	conn      *session.Conn
	err       error

	teardownOnce sync.Once
	done         chan struct{}
}

// Subscribe starts the observation. onNext is called on the loop of the
// store with a detached copy of the current result: once after the initial
// load and again after every committed write changing it. An error is
// delivered once and ends the subscription.
func (st *Stream[T]) Subscribe(ctx context.Context, onNext func([]T, error)) *Subscription {
	s := st.store
	sub := &Subscription{
		id:    uuid.NewString(),
		table: registry.TableName[T](),
		loop:  s.loop,
		done:  make(chan struct{}),
	}

	err := s.loop.Dispatch(ctx, func(ctx context.Context) {
		if sub.Cancelled() {
			sub.teardown()
			return
		}
		conn, err := Open[T](s, ctx)
		if err != nil {
			sub.fail(err, func() { onNext(nil, err) })
			return
		}
		if !sub.attach(conn) {
			return
		}
		results, err := conn.FindAllAsync(ctx, sub.table, buildQuery(st.build))
		if err != nil {
			sub.fail(err, func() { onNext(nil, err) })
			return
		}
		results.AddChangeListener(func(r *session.LiveResults, err error) {
			var items []T
			if err == nil {
				items, err = DetachAll[T](ctx, r)
			}
			if err != nil {
				sub.fail(err, func() { onNext(nil, err) })
				return
			}
			sub.deliver(func() { onNext(items, nil) })
		})
		log.Debug("subscription {{id}} started on {{table}}", "id", sub.id, "table", sub.table)
	})
	if err != nil {
		err = errors.NewQueryFailedError(sub.table, err)
		sub.fail(err, func() { onNext(nil, err) })
	}
	return sub
}

func (s *Subscription) ID() string {
	return s.id
}

// Done is closed when the subscription has been torn down.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Err returns the error that ended the subscription, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel ends the subscription. No delivery begins after Cancel returned;
// a delivery already running completes. The connection is released on the
// loop. Cancel is idempotent and may be called from onNext.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()

	if err := s.loop.Post(func(context.Context) { s.teardown() }); err != nil {
		s.teardown()
	}
}

// attach records the connection of the subscription. It reports false if
// the subscription was cancelled meanwhile; the connection is closed then.
func (s *Subscription) attach(conn *session.Conn) bool {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		conn.Close()
		s.teardown()
		return false
	}
	s.conn = conn
	s.mu.Unlock()
	return true
}

func (s *Subscription) deliver(fn func()) {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// fail delivers a terminal error and ends the subscription.
func (s *Subscription) fail(err error, fn func()) {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.err = err
	s.mu.Unlock()

	log.Debug("subscription {{id}} on {{table}} failed", "id", s.id, "table", s.table, "error", err)
	fn()
	s.teardown()
}

func (s *Subscription) teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		close(s.done)
		log.Trace("subscription {{id}} torn down", "id", s.id)
	})
}
