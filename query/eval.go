/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"bytes"
	"cmp"
	"encoding/json"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Document is the decoded form of a stored record.
type Document = map[string]any

// Decode decodes a stored record into a Document. Numbers are kept as
// json.Number so that integers beyond 2^53 compare exactly.
func Decode(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var d Document
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	return d, nil
}

// Match reports whether doc satisfies the predicates of q.
func (q *Query) Match(doc Document) (bool, error) {
	if err := q.Err(); err != nil {
		return false, err
	}
	return q.match(doc), nil
}

func (q *Query) match(doc Document) bool {
	if q == nil {
		return true
	}
	for _, group := range q.groups {
		ok := true
		for _, p := range group {
			if p.eval(doc) == p.negate {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Run evaluates q on docs and returns the indexes of the matching documents
// in result order. Without sort keys the input order is kept; sorting is
// stable so equal keys keep their input order too.
func (q *Query) Run(docs []Document) ([]int, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}

	idx := make([]int, 0, len(docs))
	for i, d := range docs {
		if q.match(d) {
			idx = append(idx, i)
		}
	}
	if q == nil {
		return idx, nil
	}

	if len(q.sorts) > 0 {
		sort.SliceStable(idx, func(a, b int) bool {
			da, db := docs[idx[a]], docs[idx[b]]
			for _, s := range q.sorts {
				c := compareForSort(lookup(da, s.field), lookup(db, s.field))
				if c == 0 {
					continue
				}
				if s.ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	if q.limit > 0 && len(idx) > q.limit {
		idx = idx[:q.limit]
	}
	return idx, nil
}

func (p predicate) eval(doc Document) bool {
	v := lookup(doc, p.field)
	switch p.op {
	case OpIsNull:
		return v == nil
	case OpIsNotNull:
		return v != nil
	case OpEqual:
		return equal(v, p.value)
	case OpNotEqual:
		return !equal(v, p.value)
	case OpIn:
		for _, c := range p.values {
			if equal(v, c) {
				return true
			}
		}
		return false
	case OpBeginsWith:
		s, ok := v.(string)
		return ok && strings.HasPrefix(s, p.value.(string))
	case OpContains:
		switch tv := v.(type) {
		case string:
			sub, ok := p.value.(string)
			return ok && strings.Contains(tv, sub)
		case []any:
			for _, e := range tv {
				if equal(e, p.value) {
					return true
				}
			}
		}
		return false
	}

	c, ok := compare(v, p.value)
	if !ok {
		return false
	}
	switch p.op {
	case OpGreater:
		return c > 0
	case OpGreaterOrEqual:
		return c >= 0
	case OpLess:
		return c < 0
	case OpLessOrEqual:
		return c <= 0
	}
	return false
}

// lookup resolves dotted paths like "address.city".
func lookup(doc Document, field string) any {
	var cur any = doc
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func equal(a, b any) bool {
	if c, ok := compareNumbers(a, b); ok {
		return c == 0
	}
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !equal(x, y) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// compareNumbers compares two numbers exactly. Integers are compared as
// int64 if both fit, everything else as rationals.
func compareNumbers(a, b any) (int, bool) {
	an, aok := a.(json.Number)
	bn, bok := b.(json.Number)
	if aok && bok {
		x, errx := strconv.ParseInt(string(an), 10, 64)
		y, erry := strconv.ParseInt(string(bn), 10, 64)
		if errx == nil && erry == nil {
			return cmp.Compare(x, y), true
		}
	}
	ra, ok := rat(a)
	if !ok {
		return 0, false
	}
	rb, ok := rat(b)
	if !ok {
		return 0, false
	}
	return ra.Cmp(rb), true
}

func rat(v any) (*big.Rat, bool) {
	switch n := v.(type) {
	case json.Number:
		return new(big.Rat).SetString(string(n))
	case float64:
		r := new(big.Rat).SetFloat64(n)
		return r, r != nil
	}
	return nil, false
}

// compare orders numbers, strings and booleans of the same kind.
func compare(a, b any) (int, bool) {
	if c, ok := compareNumbers(a, b); ok {
		return c, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// compareForSort is total: nulls first, then by kind, then by value.
func compareForSort(a, b any) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	c, _ := compare(a, b)
	return c
}

func kindRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case json.Number, float64:
		return 2
	case string:
		return 3
	}
	return 4
}
