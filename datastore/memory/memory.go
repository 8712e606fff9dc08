/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides process local databases for tests and for
// configurations marked in-memory. Databases are identified by the
// configuration name and outlive the connections using them until Drop.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

func init() {
	datastore.RegisterDriver(storagemodels.DriverMemory, datastore.DriverFunc(Open))
}

type database struct {
	mu            sync.RWMutex
	name          string
	schemaVersion uint64
	versioned     bool
	tables        map[string]map[string]datastore.Record
	seq           uint64
	putError      func(table, key string) error
	deleteError   error
	commitError   error
}

var (
	databases = make(map[string]*database)
	dbMu      sync.Mutex
)

// Option adjusts the behavior of a named database, mostly to simulate
// failures in tests.
type Option func(*database)

// WithPutError makes every Put fail with err. A nil err removes the fault.
func WithPutError(err error) Option {
	return func(db *database) {
		if err == nil {
			db.putError = nil
			return
		}
		db.putError = func(string, string) error { return err }
	}
}

// WithPutErrorFunc decides per table and key whether a Put fails.
func WithPutErrorFunc(f func(table, key string) error) Option {
	return func(db *database) {
		db.putError = f
	}
}

// WithDeleteError makes every Delete fail with err.
func WithDeleteError(err error) Option {
	return func(db *database) {
		db.deleteError = err
	}
}

// WithCommitError makes the commit of every Update fail with err after the
// transaction function succeeded.
func WithCommitError(err error) Option {
	return func(db *database) {
		db.commitError = err
	}
}

// Configure applies opts to the named database, creating it if necessary.
func Configure(name string, opts ...Option) {
	db := lookup(name, true)
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, opt := range opts {
		opt(db)
	}
}

// Drop discards the named database with all its content and options.
// Open backends keep working on the discarded data.
func Drop(name string) {
	dbMu.Lock()
	defer dbMu.Unlock()
	delete(databases, name)
	log.Debug("dropped in-memory database {{name}}", "name", name)
}

// DropAll discards every in-memory database.
func DropAll() {
	dbMu.Lock()
	defer dbMu.Unlock()
	databases = make(map[string]*database)
}

// Snapshot returns a copy of the content of the named database, nil if it
// does not exist.
func Snapshot(name string) map[string][]datastore.Record {
	db := lookup(name, false)
	if db == nil {
		return nil
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make(map[string][]datastore.Record, len(db.tables))
	for table := range db.tables {
		out[table] = db.scan(table)
	}
	return out
}

// Count returns the number of records in table of the named database.
func Count(name, table string) int {
	db := lookup(name, false)
	if db == nil {
		return 0
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.tables[table])
}

func lookup(name string, create bool) *database {
	dbMu.Lock()
	defer dbMu.Unlock()
	db, ok := databases[name]
	if !ok && create {
		db = &database{name: name, tables: make(map[string]map[string]datastore.Record)}
		databases[name] = db
	}
	return db
}

// Open returns a backend for the database named like the configuration.
// The first open records the schema version, later opens must agree.
func Open(ctx context.Context, cfg storagemodels.Configuration) (datastore.Backend, error) {
	if cfg.Name() == "" {
		return nil, errors.NewValidationError("name", "in-memory configuration requires a name")
	}

	db := lookup(cfg.Name(), true)
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.versioned {
		db.schemaVersion = cfg.SchemaVersion()
		db.versioned = true
	}
	if db.schemaVersion != cfg.SchemaVersion() {
		return nil, fmt.Errorf("in-memory database %q has schema version %d, configuration expects %d",
			cfg.Name(), db.schemaVersion, cfg.SchemaVersion())
	}
	log.Trace("opened in-memory database {{name}}", "name", cfg.Name())
	return &Store{db: db}, nil
}

// Store is a backend on one in-memory database.
type Store struct {
	db     *database
	closed atomic.Bool
}

var _ datastore.Backend = (*Store)(nil)

func (s *Store) check() error {
	if s.closed.Load() {
		return fmt.Errorf("in-memory database %q: backend closed", s.db.name)
	}
	return nil
}

// Scan returns copies of all records of table in insertion order.
func (s *Store) Scan(ctx context.Context, table string) ([]datastore.Record, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.scan(table), nil
}

func (db *database) scan(table string) []datastore.Record {
	t := db.tables[table]
	out := make([]datastore.Record, 0, len(t))
	for _, r := range t {
		out = append(out, copyRecord(r))
	}
	datastore.SortBySeq(out)
	return out
}

// Get retrieves a copy of the record stored under key.
func (s *Store) Get(ctx context.Context, table, key string) (datastore.Record, bool, error) {
	if err := s.check(); err != nil {
		return datastore.Record{}, false, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.tables[table][key]
	if !ok {
		return datastore.Record{}, false, nil
	}
	return copyRecord(r), true, nil
}

type op struct {
	table  string
	key    string
	data   []byte
	delete bool
}

type tx struct {
	db  *database
	ops []op
}

func (t *tx) Put(table, key string, data []byte) error {
	if table == "" || key == "" {
		return errors.NewValidationError("key", "table and key must not be empty")
	}
	if t.db.putError != nil {
		if err := t.db.putError(table, key); err != nil {
			return err
		}
	}
	t.ops = append(t.ops, op{table: table, key: key, data: append([]byte(nil), data...)})
	return nil
}

func (t *tx) Delete(table, key string) error {
	if t.db.deleteError != nil {
		return t.db.deleteError
	}
	t.ops = append(t.ops, op{table: table, key: key, delete: true})
	return nil
}

// Update stages the writes of fn and applies them only if fn and the
// commit succeed. Concurrent updates of one database are serialized.
func (s *Store) Update(ctx context.Context, fn func(datastore.Tx) error) error {
	if err := s.check(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t := &tx{db: s.db}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.commitError != nil {
		return s.db.commitError
	}

	for _, o := range t.ops {
		tbl := s.db.tables[o.table]
		if o.delete {
			delete(tbl, o.key)
			continue
		}
		if tbl == nil {
			tbl = make(map[string]datastore.Record)
			s.db.tables[o.table] = tbl
		}
		rec, exists := tbl[o.key]
		if !exists {
			s.db.seq++
			rec = datastore.Record{Key: o.key, Seq: s.db.seq}
		}
		rec.Data = o.data
		tbl[o.key] = rec
	}
	return nil
}

// Close detaches the backend; the database content stays available.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

// Tables lists the tables of the named database.
func Tables(name string) []string {
	db := lookup(name, false)
	if db == nil {
		return nil
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.tables))
	for n := range db.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func copyRecord(r datastore.Record) datastore.Record {
	r.Data = append([]byte(nil), r.Data...)
	return r
}
