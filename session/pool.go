/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// entry is a backend shared by all connections addressing the same
// logical database.
type entry struct {
	key         string
	backend     datastore.Backend
	hub         *Hub
	fingerprint uint64
	refs        int
}

var (
	entries = map[string]*entry{}
	poolMu  sync.Mutex
)

func acquire(ctx context.Context, cfg storagemodels.Configuration) (*entry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConnectionFailedError(cfg.Name(), err)
	}

	key := cfg.Key()
	poolMu.Lock()
	defer poolMu.Unlock()

	if e, ok := entries[key]; ok {
		if e.fingerprint != cfg.Fingerprint() {
			return nil, errors.NewConnectionFailedError(cfg.Name(),
				fmt.Errorf("database %s is already open with a different schema version or encryption key", key))
		}
		e.refs++
		return e, nil
	}

	driver, err := datastore.GetDriver(cfg.Driver())
	if err != nil {
		return nil, errors.NewConnectionFailedError(cfg.Name(), err)
	}
	backend, err := driver.Open(ctx, cfg)
	if err != nil {
		return nil, errors.NewConnectionFailedError(cfg.Name(), err)
	}

	e := &entry{
		key:         key,
		backend:     backend,
		hub:         newHub(),
		fingerprint: cfg.Fingerprint(),
		refs:        1,
	}
	entries[key] = e
	GaugeOpenBackends.Inc()
	log.Debug("opened backend {{key}}", "key", key, "driver", cfg.Driver())
	return e, nil
}

func release(e *entry) {
	poolMu.Lock()
	defer poolMu.Unlock()

	e.refs--
	if e.refs > 0 {
		return
	}
	if entries[e.key] == e {
		delete(entries, e.key)
	}
	GaugeOpenBackends.Dec()
	if err := e.backend.Close(); err != nil {
		log.Error("closing backend {{key}} failed", "key", e.key, "error", err)
		return
	}
	log.Debug("closed backend {{key}}", "key", e.key)
}

// OpenBackends returns the number of logical databases held open.
func OpenBackends() int {
	poolMu.Lock()
	defer poolMu.Unlock()
	return len(entries)
}
