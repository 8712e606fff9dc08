/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"sync"

	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/scheduler"
	"github.com/suparena/modelstore/storagemodels"
)

// Store ties a configuration registry to the loop asynchronous queries and
// observations are executed on. All methods are safe for concurrent use.
type Store struct {
	registry *registry.Registry
	loop     *scheduler.Loop
	ownsLoop bool
}

// Option is a functional option used by New
type Option func(*Store)

// WithRegistry makes the store resolve configurations from r instead of a
// private registry.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Store) {
		s.registry = r
	}
}

// WithLoop executes asynchronous work on l. The store does not close a
// loop it was given.
func WithLoop(l *scheduler.Loop) Option {
	return func(s *Store) {
		s.loop = l
	}
}

// New creates a store. Without options it gets a private registry and its
// own loop.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = registry.NewRegistry()
	}
	if s.loop == nil {
		s.loop = scheduler.New("modelstore")
		s.ownsLoop = true
	}
	return s
}

var (
	defaultStore *Store
	defaultOnce  sync.Once
)

// Default returns the process wide store using registry.Default().
func Default() *Store {
	defaultOnce.Do(func() {
		defaultStore = New(WithRegistry(registry.Default()))
	})
	return defaultStore
}

// Registry returns the registry configurations are resolved from.
func (s *Store) Registry() *registry.Registry {
	return s.registry
}

// Loop returns the loop queries and observations run on.
func (s *Store) Loop() *scheduler.Loop {
	return s.loop
}

// SetDefaultConfiguration sets the configuration used for model types
// without an own registration.
func (s *Store) SetDefaultConfiguration(cfg storagemodels.Configuration) {
	s.registry.SetDefault(cfg)
}

// Reset drops all configuration registrations.
func (s *Store) Reset() {
	s.registry.Reset()
}

// Close stops the loop of the store if the store created it. Queued work
// is still executed; work handed over later fails with
// scheduler.ErrLoopClosed. Close waits for the loop and must not be called
// from a task running on it.
func (s *Store) Close() error {
	if !s.ownsLoop {
		return nil
	}
	err := s.loop.Close()
	s.loop.Wait()
	return err
}
