/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"sync/atomic"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/session"
)

// delivery states of a one shot query
const (
	statePending int32 = iota
	stateDelivering
	stateDone
)

// QueryBuilder adds predicates, sort order and limit to a query.
type QueryBuilder func(q *query.Query)

func buildQuery(build QueryBuilder) *query.Query {
	if build == nil {
		return nil
	}
	q := query.New()
	build(q)
	return q
}

// oneShot delivers the first result of a live query exactly once.
type oneShot[T any] struct {
	state   atomic.Int32
	table   string
	deliver func([]T, error)
}

func (o *oneShot[T]) finish(items []T, err error) {
	if !o.state.CompareAndSwap(statePending, stateDelivering) {
		return
	}
	defer o.state.Store(stateDone)
	if err != nil {
		log.Debug("query on {{table}} failed", "table", o.table, "error", err)
		items = nil
	}
	o.deliver(items, err)
}

// runAsync resolves the configuration of T, runs a live query on the loop
// of the store and hands the first loaded result to deliver. The connection
// is closed before deliver is called. deliver is called exactly once, on
// the loop, or inline if the loop is closed.
func runAsync[T any](s *Store, ctx context.Context, build QueryBuilder, deliver func([]T, error)) {
	o := &oneShot[T]{table: registry.TableName[T](), deliver: deliver}

	err := s.loop.Dispatch(ctx, func(ctx context.Context) {
		q := buildQuery(build)
		conn, err := Open[T](s, ctx)
		if err != nil {
			o.finish(nil, err)
			return
		}
		results, err := conn.FindAllAsync(ctx, o.table, q)
		if err != nil {
			conn.Close()
			o.finish(nil, err)
			return
		}
		results.AddChangeListener(func(r *session.LiveResults, err error) {
			if o.state.Load() != statePending {
				return
			}
			var items []T
			if err == nil {
				items, err = DetachAll[T](ctx, r)
			}
			r.RemoveChangeListeners()
			conn.Close()
			o.finish(items, err)
		})
	})
	if err != nil {
		o.finish(nil, errors.NewQueryFailedError(o.table, err))
	}
}

// QueryAllAsync calls cb with all stored instances of T in insertion order.
func QueryAllAsync[T any](s *Store, ctx context.Context, cb func([]T, error)) {
	runAsync(s, ctx, nil, cb)
}

// QueryAsync calls cb with the instances of T matching the query built by
// build.
func QueryAsync[T any](s *Store, ctx context.Context, build QueryBuilder, cb func([]T, error)) {
	runAsync(s, ctx, build, cb)
}

// QueryFirstAsync calls cb with the first instance of T, nil if there is
// none.
func QueryFirstAsync[T any](s *Store, ctx context.Context, cb func(*T, error)) {
	runAsync(s, ctx, nil, func(items []T, err error) {
		if err != nil || len(items) == 0 {
			cb(nil, err)
			return
		}
		cb(&items[0], nil)
	})
}

// QueryLastAsync calls cb with the last instance of T, nil if there is
// none.
func QueryLastAsync[T any](s *Store, ctx context.Context, cb func(*T, error)) {
	runAsync(s, ctx, nil, func(items []T, err error) {
		if err != nil || len(items) == 0 {
			cb(nil, err)
			return
		}
		cb(&items[len(items)-1], nil)
	})
}
