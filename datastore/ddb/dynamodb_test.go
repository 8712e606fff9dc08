/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/storagemodels"
)

func newTestStore(t *testing.T, api *fakeAPI, opts ...storagemodels.ScanOption) *DynamodbDataStore {
	t.Helper()
	scan := storagemodels.DefaultScanOptions()
	scan.RetryBackoff = time.Millisecond
	for _, o := range opts {
		o(&scan)
	}
	d, err := NewDynamodbDataStore(context.Background(), api, "models", 1, scan)
	if err != nil {
		t.Fatalf("NewDynamodbDataStore failed: %v", err)
	}
	return d
}

func TestSchemaCheck(t *testing.T) {
	api := newFakeAPI()
	newTestStore(t, api)

	t.Run("SameVersion", func(t *testing.T) {
		newTestStore(t, api)
	})

	t.Run("Mismatch", func(t *testing.T) {
		_, err := NewDynamodbDataStore(context.Background(), api, "models", 2, storagemodels.DefaultScanOptions())
		if err == nil || !strings.Contains(err.Error(), "schema version") {
			t.Fatalf("expected schema mismatch, got %v", err)
		}
	})
}

func TestUpdateAndScan(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	d := newTestStore(t, api, storagemodels.WithPageSize(2))

	// keys sort differently from insertion order
	keys := []string{"z", "b", "m", "a", "k"}
	err := d.Update(ctx, func(tx datastore.Tx) error {
		for _, k := range keys {
			if err := tx.Put("users", k, []byte("v-"+k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	t.Run("ScanOrdersBySeq", func(t *testing.T) {
		var progress []storagemodels.ScanProgress
		d.scan.ProgressHandler = func(p storagemodels.ScanProgress) { progress = append(progress, p) }
		defer func() { d.scan.ProgressHandler = nil }()

		recs, err := d.Scan(ctx, "users")
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(recs) != len(keys) {
			t.Fatalf("expected %d records, got %d", len(keys), len(recs))
		}
		for i, k := range keys {
			if recs[i].Key != k || string(recs[i].Data) != "v-"+k {
				t.Fatalf("position %d: unexpected record %+v", i, recs[i])
			}
		}
		if len(progress) != 3 || progress[2].ItemsProcessed != 5 {
			t.Fatalf("unexpected progress reports: %+v", progress)
		}
	})

	t.Run("UpsertKeepsSeq", func(t *testing.T) {
		before := seqOf(api.items[partition("users")+"|z"])
		if err := d.Update(ctx, func(tx datastore.Tx) error { return tx.Put("users", "z", []byte("new")) }); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		rec, ok, err := d.Get(ctx, "users", "z")
		if err != nil || !ok {
			t.Fatalf("Get failed: %v", err)
		}
		if rec.Seq != before || string(rec.Data) != "new" {
			t.Fatalf("unexpected record %+v, seq before %d", rec, before)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := d.Update(ctx, func(tx datastore.Tx) error { return tx.Delete("users", "m") }); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if _, ok, _ := d.Get(ctx, "users", "m"); ok {
			t.Fatalf("deleted record still present")
		}
	})

	t.Run("OtherTableIsolated", func(t *testing.T) {
		recs, err := d.Scan(ctx, "orders")
		if err != nil || len(recs) != 0 {
			t.Fatalf("expected empty table, got %v %v", recs, err)
		}
	})
}

func TestUpdateFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("FunctionErrorSendsNothing", func(t *testing.T) {
		api := newFakeAPI()
		d := newTestStore(t, api)
		boom := stderrors.New("boom")
		err := d.Update(ctx, func(tx datastore.Tx) error {
			tx.Put("users", "a", nil)
			return boom
		})
		if !stderrors.Is(err, boom) || len(api.transactions) != 0 {
			t.Fatalf("expected no transaction, got %v (%d sent)", err, len(api.transactions))
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		api := newFakeAPI()
		api.transactErr = &types.TransactionCanceledException{}
		d := newTestStore(t, api)
		err := d.Update(ctx, func(tx datastore.Tx) error { return tx.Put("users", "a", nil) })
		var tce *types.TransactionCanceledException
		if !stderrors.As(err, &tce) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	})

	t.Run("DuplicateKeysCollapse", func(t *testing.T) {
		api := newFakeAPI()
		d := newTestStore(t, api)
		err := d.Update(ctx, func(tx datastore.Tx) error {
			tx.Put("users", "a", []byte("1"))
			return tx.Put("users", "a", []byte("2"))
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if n := len(api.transactions[0].TransactItems); n != 1 {
			t.Fatalf("expected 1 transact item, got %d", n)
		}
	})

	t.Run("TooManyItems", func(t *testing.T) {
		d := newTestStore(t, newFakeAPI())
		err := d.Update(ctx, func(tx datastore.Tx) error {
			for i := 0; i <= MaxTransactionItems; i++ {
				if err := tx.Put("users", fmt.Sprint(i), nil); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			t.Fatalf("expected item limit error")
		}
	})

	t.Run("ReservedTable", func(t *testing.T) {
		d := newTestStore(t, newFakeAPI())
		err := d.Update(ctx, func(tx datastore.Tx) error { return tx.Put(metaPartition, "x", nil) })
		if err == nil {
			t.Fatalf("expected reserved table error")
		}
	})
}

func TestScanRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("RetryableRecovers", func(t *testing.T) {
		api := newFakeAPI()
		d := newTestStore(t, api)
		api.queryErrors = []error{&types.ProvisionedThroughputExceededException{}, &types.InternalServerError{}}
		if _, err := d.Scan(ctx, "users"); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if api.queryCalls != 3 {
			t.Fatalf("expected 3 query calls, got %d", api.queryCalls)
		}
	})

	t.Run("RetriesExhausted", func(t *testing.T) {
		api := newFakeAPI()
		d := newTestStore(t, api, storagemodels.WithMaxRetries(1))
		api.queryErrors = []error{&types.RequestLimitExceeded{}, &types.RequestLimitExceeded{}, &types.RequestLimitExceeded{}}
		_, err := d.Scan(ctx, "users")
		if err == nil || !strings.Contains(err.Error(), "after 1 retries") {
			t.Fatalf("expected exhausted retries, got %v", err)
		}
	})

	t.Run("NotRetryable", func(t *testing.T) {
		api := newFakeAPI()
		d := newTestStore(t, api)
		api.queryErrors = []error{&types.ResourceNotFoundException{}}
		if _, err := d.Scan(ctx, "users"); err == nil {
			t.Fatalf("expected error")
		}
		if api.queryCalls != 1 {
			t.Fatalf("expected a single query call, got %d", api.queryCalls)
		}
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"throughput", &types.ProvisionedThroughputExceededException{}, true},
		{"request limit", &types.RequestLimitExceeded{}, true},
		{"internal", &types.InternalServerError{}, true},
		{"wrapped", fmt.Errorf("op: %w", &types.InternalServerError{}), true},
		{"not found", &types.ResourceNotFoundException{}, false},
		{"plain", stderrors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Fatalf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSequenceMonotonic(t *testing.T) {
	var s sequence
	last := s.next()
	for i := 0; i < 1000; i++ {
		n := s.next()
		if n <= last {
			t.Fatalf("sequence not increasing: %d after %d", n, last)
		}
		last = n
	}
}
