/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"

	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/session"
	"github.com/suparena/modelstore/storagemodels"
)

// RegisterConfiguration binds cfg to the model type T. Registering again
// replaces the previous configuration.
func RegisterConfiguration[T any](s *Store, cfg storagemodels.Configuration) {
	s.registry.Register(registry.TypeOf[T](), cfg)
}

// UnregisterConfiguration removes the configuration bound to T, so that T
// falls back to the default configuration.
func UnregisterConfiguration[T any](s *Store) {
	s.registry.Unregister(registry.TypeOf[T]())
}

// ResolveConfiguration returns the configuration instances of T are stored
// with: the one registered for T, else the default configuration.
func ResolveConfiguration[T any](s *Store) (storagemodels.Configuration, error) {
	return s.registry.Resolve(registry.TypeOf[T]())
}

// Open resolves the configuration of T and leases a connection for it.
// The caller must close the connection.
func Open[T any](s *Store, ctx context.Context) (*session.Conn, error) {
	cfg, err := ResolveConfiguration[T](s)
	if err != nil {
		return nil, err
	}
	return session.Open(ctx, cfg)
}
