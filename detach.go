/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"encoding/json"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/session"
)

func decode[T any](table string, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.NewQueryFailedError(table, err)
	}
	return v, nil
}

// Detach loads the current state of obj into a plain value that stays
// usable after the connection of obj is closed. A missing record or an
// invalid object yields nil without error.
func Detach[T any](ctx context.Context, obj *session.LiveObject) (*T, error) {
	if !obj.IsValid() {
		return nil, nil
	}
	data, ok, err := obj.Load(ctx)
	if err != nil || !ok {
		return nil, err
	}
	v, err := decode[T](obj.Table(), data)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DetachAll copies the current content of r in result order. The slice is
// never nil; it is empty for invalid results.
func DetachAll[T any](ctx context.Context, r *session.LiveResults) ([]T, error) {
	if r == nil {
		return []T{}, nil
	}
	records := r.Records()
	out := make([]T, 0, len(records))
	for _, rec := range records {
		v, err := decode[T](r.Table(), rec.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
