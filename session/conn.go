/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/scheduler"
	"github.com/suparena/modelstore/storagemodels"
)

// ErrConnectionClosed is returned by operations on a closed connection.
var ErrConnectionClosed = stderrors.New("session: connection closed")

// Conn is a connection to one logical database. It is owned by a single
// operation and bound to the loop found in the context it was opened with.
type Conn struct {
	id    string
	cfg   storagemodels.Configuration
	entry *entry
	loop  *scheduler.Loop

	mu     sync.Mutex
	closed bool
	live   []*LiveResults
}

// Open leases a connection for cfg. Connections addressing the same
// logical database share one backend, which is opened on first use and
// closed with the last connection.
func Open(ctx context.Context, cfg storagemodels.Configuration) (*Conn, error) {
	e, err := acquire(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		id:    uuid.NewString(),
		cfg:   cfg,
		entry: e,
		loop:  scheduler.FromContext(ctx),
	}
	GaugeOpenConnections.Inc()
	log.Trace("opened connection {{id}} on {{key}}", "id", c.id, "key", e.key)
	return c, nil
}

// Lease opens a connection for the duration of fn. The connection is
// closed on every exit path, including panics.
func Lease(ctx context.Context, cfg storagemodels.Configuration, fn func(*Conn) error) error {
	c, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Configuration() storagemodels.Configuration {
	return c.cfg
}

// Loop returns the loop the connection is bound to, nil if it was opened
// outside of a loop.
func (c *Conn) Loop() *scheduler.Loop {
	return c.loop
}

// Hub returns the change hub of the logical database.
func (c *Conn) Hub() *Hub {
	return c.entry.hub
}

func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops all live queries of the connection and releases the backend.
// Closing a closed connection is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	live := c.live
	c.live = nil
	c.mu.Unlock()

	for _, r := range live {
		r.stop()
	}
	release(c.entry)
	GaugeOpenConnections.Dec()
	log.Trace("closed connection {{id}}", "id", c.id)
	return nil
}

func (c *Conn) backend() (datastore.Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	return c.entry.backend, nil
}

// Get reads a single record.
func (c *Conn) Get(ctx context.Context, table, key string) (datastore.Record, bool, error) {
	b, err := c.backend()
	if err != nil {
		return datastore.Record{}, false, err
	}
	rec, ok, err := b.Get(ctx, table, key)
	if err != nil {
		return datastore.Record{}, false, errors.NewQueryFailedError(table, err)
	}
	return rec, ok, nil
}

// Scan returns the records of table matching q in result order. A nil q
// matches all records in insertion order.
func (c *Conn) Scan(ctx context.Context, table string, q *query.Query) ([]datastore.Record, error) {
	if err := q.Err(); err != nil {
		return nil, errors.NewQueryFailedError(table, err)
	}
	b, err := c.backend()
	if err != nil {
		return nil, errors.NewQueryFailedError(table, err)
	}
	records, err := b.Scan(ctx, table)
	if err != nil {
		return nil, errors.NewQueryFailedError(table, err)
	}
	if q == nil {
		return records, nil
	}

	docs := make([]query.Document, len(records))
	for i, r := range records {
		if docs[i], err = query.Decode(r.Data); err != nil {
			return nil, errors.NewQueryFailedError(table, fmt.Errorf("record %q: %w", r.Key, err))
		}
	}
	idx, err := q.Run(docs)
	if err != nil {
		return nil, errors.NewQueryFailedError(table, err)
	}
	out := make([]datastore.Record, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out, nil
}

// WriteTx is the write side of a transaction started with Write.
type WriteTx struct {
	tx     datastore.Tx
	tables []string
}

func (w *WriteTx) touch(table string) {
	for _, t := range w.tables {
		if t == table {
			return
		}
	}
	w.tables = append(w.tables, table)
}

// Put stores data under key, replacing an existing record.
func (w *WriteTx) Put(table, key string, data []byte) error {
	w.touch(table)
	return w.tx.Put(table, key, data)
}

// Delete removes the record stored under key.
func (w *WriteTx) Delete(table, key string) error {
	w.touch(table)
	return w.tx.Delete(table, key)
}

// Write runs fn in one write transaction. If fn or the commit fails,
// nothing is written and a TransactionFailed error wrapping the cause is
// returned. After a commit all live queries on the changed tables of the
// logical database are notified.
func (c *Conn) Write(ctx context.Context, fn func(*WriteTx) error) error {
	b, err := c.backend()
	if err != nil {
		return errors.NewTransactionFailedError("", err)
	}

	var w *WriteTx
	err = b.Update(ctx, func(tx datastore.Tx) error {
		w = &WriteTx{tx: tx}
		return fn(w)
	})
	if err != nil {
		CounterWriteTransactions.WithLabelValues("rolled_back").Inc()
		table := ""
		if w != nil && len(w.tables) == 1 {
			table = w.tables[0]
		}
		log.Debug("write transaction rolled back", "connection", c.id, "error", err)
		return errors.NewTransactionFailedError(table, err)
	}

	CounterWriteTransactions.WithLabelValues("committed").Inc()
	if w != nil && len(w.tables) > 0 {
		c.entry.hub.Publish(w.tables...)
	}
	return nil
}

func (c *Conn) track(r *LiveResults) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	c.live = append(c.live, r)
	GaugeLiveQueries.Inc()
	return nil
}

func (c *Conn) untrack(r *LiveResults) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.live {
		if e == r {
			c.live = append(c.live[:i:i], c.live[i+1:]...)
			return
		}
	}
}
