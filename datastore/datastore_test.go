/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"testing"

	"github.com/suparena/modelstore/storagemodels"
)

func TestDriverRegistry(t *testing.T) {
	var opened bool
	RegisterDriver("test-driver", DriverFunc(func(ctx context.Context, cfg storagemodels.Configuration) (Backend, error) {
		opened = true
		return nil, nil
	}))

	d, err := GetDriver("test-driver")
	if err != nil {
		t.Fatalf("GetDriver failed: %v", err)
	}
	if _, err := d.Open(context.Background(), storagemodels.Configuration{}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !opened {
		t.Fatalf("driver func was not called")
	}

	if _, err := GetDriver("missing"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}

	found := false
	for _, n := range Drivers() {
		if n == "test-driver" {
			found = true
		}
	}
	if !found {
		t.Fatalf("driver not listed: %v", Drivers())
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate driver")
		}
	}()
	RegisterDriver("test-driver", DriverFunc(nil))
}

func TestSortBySeq(t *testing.T) {
	recs := []Record{{Key: "c", Seq: 3}, {Key: "a", Seq: 1}, {Key: "b", Seq: 2}}
	SortBySeq(recs)
	for i, want := range []string{"a", "b", "c"} {
		if recs[i].Key != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, recs[i].Key)
		}
	}
}
