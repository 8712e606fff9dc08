/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/query"
)

// ErrNoLoop is returned when a live query is started on a connection that
// was not opened on a loop.
var ErrNoLoop = stderrors.New("session: live queries require a connection opened on a loop")

// ChangeListener is called on the loop of the connection whenever the
// result of a live query was loaded, changed or failed to refresh.
type ChangeListener func(r *LiveResults, err error)

type listener struct {
	fn      ChangeListener
	removed atomic.Bool
}

// LiveResults is the result of a live query. It is refreshed on the loop
// of its connection whenever a write commits to its table and becomes
// invalid once the connection is closed.
type LiveResults struct {
	conn  *Conn
	table string
	query *query.Query

	pending atomic.Bool

	mu          sync.Mutex
	records     []datastore.Record
	fingerprint uint64
	loaded      bool
	err         error
	stopped     bool
	listeners   []*listener
	unsubscribe func()
}

// FindAllAsync starts a live query on table. The first result is loaded
// asynchronously on the loop of the connection; listeners are informed
// about it and about every later change.
func (c *Conn) FindAllAsync(ctx context.Context, table string, q *query.Query) (*LiveResults, error) {
	if c.loop == nil {
		return nil, errors.NewQueryFailedError(table, ErrNoLoop)
	}
	if err := q.Err(); err != nil {
		return nil, errors.NewQueryFailedError(table, err)
	}

	r := &LiveResults{conn: c, table: table, query: q}
	if err := c.track(r); err != nil {
		return nil, errors.NewQueryFailedError(table, err)
	}
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil, errors.NewQueryFailedError(table, ErrConnectionClosed)
	}
	r.unsubscribe = c.entry.hub.Subscribe(table, func(string) { r.changed() })
	r.mu.Unlock()

	if err := r.scheduleRefresh(); err != nil {
		r.Stop()
		return nil, errors.NewQueryFailedError(table, err)
	}
	return r, nil
}

// changed schedules a refresh after a commit. If the loop does not accept
// work anymore the listeners are informed about the failure right away.
func (r *LiveResults) changed() {
	if err := r.scheduleRefresh(); err != nil {
		err = errors.NewQueryFailedError(r.table, err)
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		r.notify(err)
	}
}

// scheduleRefresh posts a refresh to the loop unless one is pending
// already. It fails only if the loop is closed.
func (r *LiveResults) scheduleRefresh() error {
	if !r.pending.CompareAndSwap(false, true) {
		return nil
	}
	err := r.conn.loop.Post(func(ctx context.Context) {
		r.pending.Store(false)
		r.refresh(ctx)
	})
	if err != nil {
		r.pending.Store(false)
		log.Debug("cannot refresh {{table}}", "table", r.table, "error", err)
	}
	return err
}

func (r *LiveResults) refresh(ctx context.Context) {
	if !r.IsValid() {
		return
	}

	records, err := r.conn.Scan(ctx, r.table, r.query)
	if err != nil {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		r.notify(err)
		return
	}

	fp := fingerprint(records)
	r.mu.Lock()
	if r.loaded && r.err == nil && fp == r.fingerprint {
		r.mu.Unlock()
		return
	}
	r.records = records
	r.fingerprint = fp
	r.loaded = true
	r.err = nil
	r.mu.Unlock()

	r.notify(nil)
}

func (r *LiveResults) notify(err error) {
	r.mu.Lock()
	listeners := append([]*listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		if l.removed.Load() || !r.IsValid() {
			continue
		}
		CounterNotifications.Inc()
		l.fn(r, err)
	}
}

// fingerprint summarizes keys, order and content of records.
func fingerprint(records []datastore.Record) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, r := range records {
		binary.BigEndian.PutUint64(buf[:], uint64(len(r.Key)))
		h.Write(buf[:])
		h.Write([]byte(r.Key))
		binary.BigEndian.PutUint64(buf[:], r.Seq)
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], uint64(len(r.Data)))
		h.Write(buf[:])
		h.Write(r.Data)
	}
	return h.Sum64()
}

// AddChangeListener registers fn and returns a function removing it again.
// A removed listener is never called afterwards.
func (r *LiveResults) AddChangeListener(fn ChangeListener) func() {
	l := &listener{fn: fn}
	r.mu.Lock()
	if !r.stopped {
		r.listeners = append(r.listeners, l)
	}
	r.mu.Unlock()

	return func() {
		l.removed.Store(true)
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.listeners {
			if e == l {
				r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
				break
			}
		}
	}
}

// RemoveChangeListeners removes all listeners.
func (r *LiveResults) RemoveChangeListeners() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.listeners {
		l.removed.Store(true)
	}
	r.listeners = nil
}

// Listeners returns the number of registered listeners.
func (r *LiveResults) Listeners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func (r *LiveResults) stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	for _, l := range r.listeners {
		l.removed.Store(true)
	}
	r.listeners = nil
	unsubscribe := r.unsubscribe
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	GaugeLiveQueries.Dec()
}

// IsValid reports whether the results still reflect the database, that is
// whether their connection is open.
func (r *LiveResults) IsValid() bool {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	return !stopped && !r.conn.IsClosed()
}

// Loaded reports whether the first result has been loaded.
func (r *LiveResults) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Err returns the error of the last refresh.
func (r *LiveResults) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *LiveResults) Table() string {
	return r.table
}

func (r *LiveResults) Conn() *Conn {
	return r.conn
}

// Len returns the number of records, zero for invalid results.
func (r *LiveResults) Len() int {
	if !r.IsValid() {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Records returns a copy of the current records, nil for invalid results.
func (r *LiveResults) Records() []datastore.Record {
	if !r.IsValid() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]datastore.Record, len(r.records))
	for i, rec := range r.records {
		rec.Data = append([]byte(nil), rec.Data...)
		out[i] = rec
	}
	return out
}

// At returns the live object at position i, nil if out of range.
func (r *LiveResults) At(i int) *LiveObject {
	if !r.IsValid() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.records) {
		return nil
	}
	return &LiveObject{conn: r.conn, table: r.table, key: r.records[i].Key}
}

// First returns the first live object, nil if there is none.
func (r *LiveResults) First() *LiveObject {
	return r.At(0)
}

// Last returns the last live object, nil if there is none.
func (r *LiveResults) Last() *LiveObject {
	return r.At(r.Len() - 1)
}

// LiveObject refers to one stored record through a connection.
type LiveObject struct {
	conn  *Conn
	table string
	key   string
}

// NewLiveObject refers to the record stored under key in table.
func (c *Conn) NewLiveObject(table, key string) *LiveObject {
	return &LiveObject{conn: c, table: table, key: key}
}

func (o *LiveObject) Table() string {
	return o.table
}

func (o *LiveObject) Key() string {
	return o.key
}

// IsValid reports whether the connection of the object is still open.
func (o *LiveObject) IsValid() bool {
	return o != nil && !o.conn.IsClosed()
}

// Load reads the current content of the object. ok is false if the object
// is invalid or the record was deleted.
func (o *LiveObject) Load(ctx context.Context) (data []byte, ok bool, err error) {
	if !o.IsValid() {
		return nil, false, nil
	}
	rec, ok, err := o.conn.Get(ctx, o.table, o.key)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec.Data, true, nil
}

// Stop ends the live query without closing its connection.
func (r *LiveResults) Stop() {
	r.conn.untrack(r)
	r.stop()
}
