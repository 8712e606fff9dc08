/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Op identifies a predicate operator.
type Op int

const (
	OpEqual Op = iota
	OpNotEqual
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
	OpBeginsWith
	OpContains
	OpIn
	OpIsNull
	OpIsNotNull
)

var opNames = map[Op]string{
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpBeginsWith:     "BEGINSWITH",
	OpContains:       "CONTAINS",
	OpIn:             "IN",
	OpIsNull:         "IS NULL",
	OpIsNotNull:      "IS NOT NULL",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

type predicate struct {
	field  string
	op     Op
	value  any
	values []any
	negate bool
}

type sortKey struct {
	field     string
	ascending bool
}

// Query filters, orders and limits the documents of one table.
// Predicates added in sequence are ANDed; Or starts a new group and the
// groups are ORed. A nil *Query matches everything.
//
// Builder mistakes do not panic; they are collected and reported by Err
// and by every evaluation.
type Query struct {
	groups     [][]predicate
	negateNext bool
	sorts      []sortKey
	limit      int
	errs       []error
}

// New creates a query matching all documents.
func New() *Query {
	return &Query{groups: [][]predicate{nil}}
}

func (q *Query) add(field string, op Op, value any, values []any) *Query {
	p := predicate{field: field, op: op, negate: q.negateNext}
	q.negateNext = false

	if field == "" {
		q.errs = append(q.errs, fmt.Errorf("%s predicate without field name", op))
		return q
	}

	var err error
	switch op {
	case OpIsNull, OpIsNotNull:
	case OpIn:
		p.values = make([]any, 0, len(values))
		for _, v := range values {
			n, nerr := normalize(v)
			if nerr != nil {
				err = nerr
				break
			}
			p.values = append(p.values, n)
		}
	default:
		p.value, err = normalize(value)
		if err == nil {
			err = checkOperand(op, p.value)
		}
	}
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("field %q %s: %w", field, op, err))
		return q
	}

	last := len(q.groups) - 1
	q.groups[last] = append(q.groups[last], p)
	return q
}

func checkOperand(op Op, v any) error {
	switch op {
	case OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		switch v.(type) {
		case json.Number, string:
			return nil
		}
		return fmt.Errorf("operand %v is not ordered", v)
	case OpBeginsWith:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("operand %v is not a string", v)
		}
	case OpContains:
		if v == nil {
			return fmt.Errorf("operand must not be null")
		}
	}
	return nil
}

// normalize maps a Go value onto the representation decoded documents use,
// so that e.g. int(3) equals the stored 3.0 and timestamps compare as text.
// Numbers become json.Number and keep their exact value.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported operand %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Query) EqualTo(field string, value any) *Query {
	return q.add(field, OpEqual, value, nil)
}

func (q *Query) NotEqualTo(field string, value any) *Query {
	return q.add(field, OpNotEqual, value, nil)
}

func (q *Query) GreaterThan(field string, value any) *Query {
	return q.add(field, OpGreater, value, nil)
}

func (q *Query) GreaterThanOrEqual(field string, value any) *Query {
	return q.add(field, OpGreaterOrEqual, value, nil)
}

func (q *Query) LessThan(field string, value any) *Query {
	return q.add(field, OpLess, value, nil)
}

func (q *Query) LessThanOrEqual(field string, value any) *Query {
	return q.add(field, OpLessOrEqual, value, nil)
}

// BeginsWith matches string fields with the given prefix.
func (q *Query) BeginsWith(field, prefix string) *Query {
	return q.add(field, OpBeginsWith, prefix, nil)
}

// Contains matches string fields containing value as substring and list
// fields containing value as element.
func (q *Query) Contains(field string, value any) *Query {
	return q.add(field, OpContains, value, nil)
}

// In matches fields equal to any of values.
func (q *Query) In(field string, values ...any) *Query {
	return q.add(field, OpIn, nil, values)
}

// IsNull matches missing and null fields.
func (q *Query) IsNull(field string) *Query {
	return q.add(field, OpIsNull, nil, nil)
}

func (q *Query) IsNotNull(field string) *Query {
	return q.add(field, OpIsNotNull, nil, nil)
}

// Not negates the next predicate.
func (q *Query) Not() *Query {
	q.negateNext = !q.negateNext
	return q
}

// Or closes the current group of ANDed predicates and starts a new one.
func (q *Query) Or() *Query {
	if q.negateNext {
		q.errs = append(q.errs, fmt.Errorf("Not must be followed by a predicate"))
		q.negateNext = false
	}
	q.groups = append(q.groups, nil)
	return q
}

// SortBy adds a sort key. Earlier keys take precedence.
func (q *Query) SortBy(field string, ascending bool) *Query {
	if field == "" {
		q.errs = append(q.errs, fmt.Errorf("sort without field name"))
		return q
	}
	q.sorts = append(q.sorts, sortKey{field: field, ascending: ascending})
	return q
}

// Limit restricts the number of results. Zero means unlimited.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		q.errs = append(q.errs, fmt.Errorf("negative limit %d", n))
		return q
	}
	q.limit = n
	return q
}

// Err reports the builder mistakes collected so far.
func (q *Query) Err() error {
	if q == nil {
		return nil
	}
	errs := q.errs
	if q.negateNext {
		errs = append(errs[:len(errs):len(errs)], fmt.Errorf("Not must be followed by a predicate"))
	}
	for i, g := range q.groups {
		if len(g) == 0 && len(q.groups) > 1 {
			errs = append(errs[:len(errs):len(errs)], fmt.Errorf("empty Or group at position %d", i))
		}
	}
	return errors.Join(errs...)
}
