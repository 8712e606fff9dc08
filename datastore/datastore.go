/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/suparena/modelstore/storagemodels"
)

// Record is one stored model instance. Seq orders records by first
// insertion and is kept when the record is overwritten.
type Record struct {
	Key  string
	Seq  uint64
	Data []byte
}

// Tx collects the writes of one Update call.
type Tx interface {
	Put(table, key string, data []byte) error
	Delete(table, key string) error
}

// Backend is an opened logical database.
type Backend interface {
	// Scan returns all records of table ordered by Seq.
	Scan(ctx context.Context, table string) ([]Record, error)

	// Get returns the record stored under key, ok is false if there is none.
	Get(ctx context.Context, table, key string) (Record, bool, error)

	// Update runs fn and commits its writes atomically. If fn or the commit
	// fails, none of the writes become visible.
	Update(ctx context.Context, fn func(Tx) error) error

	Close() error
}

// Driver opens backends for configurations naming it.
type Driver interface {
	Open(ctx context.Context, cfg storagemodels.Configuration) (Backend, error)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, cfg storagemodels.Configuration) (Backend, error)

func (f DriverFunc) Open(ctx context.Context, cfg storagemodels.Configuration) (Backend, error) {
	return f(ctx, cfg)
}

var (
	drivers  = make(map[string]Driver)
	driverMu sync.RWMutex
)

// RegisterDriver makes a driver available under name.
// If a driver is already registered for name, it panics.
func RegisterDriver(name string, d Driver) {
	driverMu.Lock()
	defer driverMu.Unlock()
	if _, exists := drivers[name]; exists {
		panic(fmt.Sprintf("datastore: driver %q already registered", name))
	}
	drivers[name] = d
}

// GetDriver returns the driver registered under name.
func GetDriver(name string) (Driver, error) {
	driverMu.RLock()
	defer driverMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("datastore: unknown driver %q (registered: %s)", name, strings.Join(driverNames(), ", "))
	}
	return d, nil
}

// Drivers lists the registered driver names.
func Drivers() []string {
	driverMu.RLock()
	defer driverMu.RUnlock()
	return driverNames()
}

func driverNames() []string {
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SortBySeq orders records by their sequence number.
func SortBySeq(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
}
