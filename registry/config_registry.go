/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// Registry maps model types to the configuration their instances are stored
// with. A default configuration serves every type without an own entry.
// All methods are safe for concurrent use; lookups only take the read lock.
type Registry struct {
	mu         sync.RWMutex
	configs    map[reflect.Type]storagemodels.Configuration
	def        storagemodels.Configuration
	hasDefault bool
}

var defaultRegistry = NewRegistry()

// NewRegistry creates an empty configuration registry.
func NewRegistry() *Registry {
	return &Registry{
		configs: make(map[reflect.Type]storagemodels.Configuration),
	}
}

// Default returns the process wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register stores or replaces the configuration for typ.
func (r *Registry) Register(typ reflect.Type, cfg storagemodels.Configuration) {
	typ = normalize(typ)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[typ] = cfg
	log.Debug("registered configuration {{configuration}} for {{type}}", "configuration", cfg.Name(), "type", typ.String())
}

// Unregister removes the type specific configuration for typ, if any.
func (r *Registry) Unregister(typ reflect.Type) {
	typ = normalize(typ)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, typ)
}

// SetDefault sets the configuration used for types without an own entry.
func (r *Registry) SetDefault(cfg storagemodels.Configuration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = cfg
	r.hasDefault = true
	log.Debug("default configuration set to {{configuration}}", "configuration", cfg.Name())
}

// ClearDefault removes the default configuration.
func (r *Registry) ClearDefault() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = storagemodels.Configuration{}
	r.hasDefault = false
}

// DefaultConfiguration returns the default configuration, if set.
func (r *Registry) DefaultConfiguration() (storagemodels.Configuration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def, r.hasDefault
}

// Lookup returns the configuration registered for typ without falling back
// to the default.
func (r *Registry) Lookup(typ reflect.Type) (storagemodels.Configuration, bool) {
	typ = normalize(typ)

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[typ]
	return cfg, ok
}

// Resolve returns the configuration registered for typ, else the default
// configuration. It fails with ErrConfigurationMissing if neither exists.
func (r *Registry) Resolve(typ reflect.Type) (storagemodels.Configuration, error) {
	typ = normalize(typ)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.configs[typ]; ok {
		return cfg, nil
	}
	if r.hasDefault {
		return r.def, nil
	}
	return storagemodels.Configuration{}, errors.NewConfigurationMissingError(typ.String())
}

// Types lists the types with an own configuration, sorted by name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]reflect.Type, 0, len(r.configs))
	for t := range r.configs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

// Reset drops all registrations including the default configuration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = make(map[reflect.Type]storagemodels.Configuration)
	r.def = storagemodels.Configuration{}
	r.hasDefault = false
}

func normalize(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}
