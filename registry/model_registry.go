/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/modelstore/errors"
)

// Tabler is implemented by models choosing their own table name.
type Tabler interface {
	TableName() string
}

// modelRegistry maps model names used in configuration files to Go types.
var (
	modelRegistry = make(map[string]reflect.Type)
	modelMu       sync.RWMutex
)

// TypeOf returns the model type of T. Pointer types are reduced to their
// element type, so *User and User denote the same model.
func TypeOf[T any]() reflect.Type {
	return normalize(reflect.TypeOf((*T)(nil)).Elem())
}

// RegisterModel binds a model name to the type T.
// If the name is already taken, it panics to prevent accidental overrides.
func RegisterModel[T any](name string) {
	t := TypeOf[T]()

	modelMu.Lock()
	defer modelMu.Unlock()
	if existing, exists := modelRegistry[name]; exists {
		panic(fmt.Sprintf("model registry: model %q already registered for %s", name, existing))
	}
	modelRegistry[name] = t
}

// LookupModel returns the type registered under name.
func LookupModel(name string) (reflect.Type, error) {
	modelMu.RLock()
	defer modelMu.RUnlock()
	t, ok := modelRegistry[name]
	if !ok {
		return nil, errors.NewNotFoundError("model", name)
	}
	return t, nil
}

// Models lists the registered model names in sorted order.
func Models() []string {
	modelMu.RLock()
	defer modelMu.RUnlock()
	names := make([]string, 0, len(modelRegistry))
	for n := range modelRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TableName returns the table instances of T are stored in.
func TableName[T any]() string {
	return TableNameOf(TypeOf[T]())
}

// TableNameOf is the reflective variant of TableName.
func TableNameOf(t reflect.Type) string {
	t = normalize(t)
	if t.Implements(tablerType) {
		return reflect.Zero(t).Interface().(Tabler).TableName()
	}
	if reflect.PointerTo(t).Implements(tablerType) {
		return reflect.New(t).Interface().(Tabler).TableName()
	}
	return t.Name()
}

var tablerType = reflect.TypeOf((*Tabler)(nil)).Elem()

// unregisterModel is used by tests only.
func unregisterModel(name string) {
	modelMu.Lock()
	defer modelMu.Unlock()
	delete(modelRegistry, name)
}
