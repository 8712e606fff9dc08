/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/modelstore/errors"
)

// Keyed is implemented by models providing their primary key directly.
type Keyed interface {
	PrimaryKey() string
}

// index maps associate a model type with key templates like
// {"PK": "USER#{ID}", "SK": "PROFILE"}.
var (
	indexMapRegistry = make(map[reflect.Type]map[string]string)
	mu               sync.RWMutex
)

// macroPattern matches {Field} references inside key templates.
var macroPattern = regexp.MustCompile(`\{([^}]+)\}`)

// RegisterIndexMap associates the model type T with key templates.
// At least a "PK" template is required to derive primary keys.
func RegisterIndexMap[T any](idxMap map[string]string) {
	t := TypeOf[T]()

	cp := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[t] = cp
}

// GetIndexMap retrieves the index map for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	t := TypeOf[T]()

	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[t]
	return m, ok
}

// KeyOf derives the primary key of entity. Models implementing Keyed decide
// themselves; otherwise the PK (and SK, if distinct) templates of the
// registered index map are expanded and joined with "|".
func KeyOf[T any](entity T) (string, error) {
	if k, ok := any(entity).(Keyed); ok {
		return checkKey(k.PrimaryKey())
	}
	if k, ok := any(&entity).(Keyed); ok {
		return checkKey(k.PrimaryKey())
	}

	idx, ok := GetIndexMap[T]()
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrNoIndexMap, TypeOf[T]())
	}
	if _, ok := idx["PK"]; !ok {
		return "", errors.NewValidationError("PK", fmt.Sprintf("index map of %s has no PK template", TypeOf[T]()))
	}

	expanded, err := expandMacros(map[string]string{"PK": idx["PK"], "SK": idx["SK"]}, entity)
	if err != nil {
		return "", err
	}
	key := expanded["PK"]
	if sk := expanded["SK"]; sk != "" && sk != key {
		key += "|" + sk
	}
	return checkKey(key)
}

func checkKey(key string) (string, error) {
	if key == "" {
		return "", errors.NewValidationError("key", "primary key must not be empty")
	}
	return key, nil
}

// expandMacros replaces {Field} references with the field values of
// keysInput. A macro referencing a missing or empty field is an error.
func expandMacros(indexMap map[string]string, keysInput any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(keysInput)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keysInput: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		var missing []string
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			s := attributeString(av[key])
			if s == "" {
				missing = append(missing, key)
			}
			return s
		})
		if len(missing) > 0 {
			return nil, errors.NewValidationError(strings.Join(missing, ","), fmt.Sprintf("%s template %q references empty fields", fieldName, template))
		}
		res[fieldName] = expanded
	}
	return res, nil
}

func attributeString(val types.AttributeValue) string {
	switch tv := val.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("%v", tv.Value)
	default:
		// NULL, binary, sets and documents cannot form key parts
		return ""
	}
}
