/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/session"
)

// Validatable is implemented by models generated from OpenAPI definitions.
type Validatable interface {
	Validate(formats strfmt.Registry) error
}

func validate[T any](entity *T) error {
	if v, ok := any(*entity).(Validatable); ok {
		return v.Validate(strfmt.Default)
	}
	if v, ok := any(entity).(Validatable); ok {
		return v.Validate(strfmt.Default)
	}
	return nil
}

// SaveAll stores entities in one write transaction, replacing stored
// instances with the same key. Either all entities are stored or none.
// With a nil conn a connection for the configuration of T is opened and
// closed again. Failures are reported as errors.TransactionFailedError.
func SaveAll[T any](s *Store, ctx context.Context, entities []T, conn *session.Conn) error {
	table := registry.TableName[T]()
	if len(entities) == 0 {
		return nil
	}

	if conn == nil {
		c, err := Open[T](s, ctx)
		if err != nil {
			return errors.NewTransactionFailedError(table, err)
		}
		defer c.Close()
		conn = c
	}

	err := conn.Write(ctx, func(tx *session.WriteTx) error {
		for i := range entities {
			entity := &entities[i]
			if err := validate(entity); err != nil {
				return fmt.Errorf("entity %d: %w", i, errors.NewValidationError("", err.Error()))
			}
			key, err := registry.KeyOf(*entity)
			if err != nil {
				return fmt.Errorf("entity %d: %w", i, err)
			}
			data, err := json.Marshal(entity)
			if err != nil {
				return fmt.Errorf("entity %d: %w", i, err)
			}
			if err := tx.Put(table, key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Debug("saving {{count}} {{table}} failed", "count", len(entities), "table", table, "error", err)
		return err
	}
	log.Trace("saved {{count}} {{table}}", "count", len(entities), "table", table)
	return nil
}

// Save stores a single entity.
func Save[T any](s *Store, ctx context.Context, entity T, conn *session.Conn) error {
	return SaveAll(s, ctx, []T{entity}, conn)
}
