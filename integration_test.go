//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/joho/godotenv"
	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/datastore/testmodels"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/storagemodels"
)

type IntegrationOrder struct {
	UserID    string          `json:"userId"`
	OrderID   string          `json:"orderId"`
	Total     float64         `json:"total"`
	Status    string          `json:"status"`
	CreatedAt strfmt.DateTime `json:"createdAt"`
}

func (o IntegrationOrder) PrimaryKey() string {
	return o.UserID + "#" + o.OrderID
}

func setupDynamoDBStore(t *testing.T) *modelstore.Store {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		t.Log("No .env file found, proceeding with environment variables")
	}
	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set, skipping integration test")
	}

	s := modelstore.New()
	s.SetDefaultConfiguration(storagemodels.NewConfiguration("integration",
		storagemodels.WithDynamoDB(storagemodels.DynamoDBSettings{
			Region:    os.Getenv("AWS_REGION"),
			Table:     table,
			AccessKey: os.Getenv("AWS_ACCESS_KEY"),
			SecretKey: os.Getenv("AWS_SECRET_KEY"),
			Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
		}),
		storagemodels.WithScanOptions(storagemodels.WithPageSize(3)),
	))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIntegrationObserveOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	s := setupDynamoDBStore(t)
	ctx := context.Background()
	userID := fmt.Sprintf("user-%d", time.Now().UnixNano())

	counts := make(chan int, 10)
	sub := modelstore.ObserveAll[IntegrationOrder](s).Subscribe(ctx, func(orders []IntegrationOrder, err error) {
		if err != nil {
			t.Errorf("observation failed: %v", err)
			return
		}
		n := 0
		for _, o := range orders {
			if o.UserID == userID {
				n++
			}
		}
		counts <- n
	})
	defer sub.Cancel()

	orders := make([]IntegrationOrder, 5)
	for i := range orders {
		orders[i] = IntegrationOrder{
			UserID:    userID,
			OrderID:   fmt.Sprintf("order-%d", i),
			Total:     float64(i) * 10.5,
			Status:    "pending",
			CreatedAt: strfmt.DateTime(time.Now()),
		}
	}
	if err := modelstore.SaveAll(s, ctx, orders, nil); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	deadline := time.After(30 * time.Second)
	for {
		select {
		case n := <-counts:
			if n == len(orders) {
				return
			}
		case <-deadline:
			t.Fatalf("saved orders were not observed")
		}
	}
}

func TestIntegrationQueryUsers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	s := setupDynamoDBStore(t)
	ctx := context.Background()

	u := testmodels.User{
		ID:        fmt.Sprintf("it-%d", time.Now().UnixNano()),
		Name:      "Integration User",
		Email:     "integration@example.com",
		CreatedAt: strfmt.DateTime(time.Now()),
	}
	if err := modelstore.Save(s, ctx, u, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	done := make(chan *testmodels.User, 1)
	modelstore.QueryAsync(s, ctx, func(q *query.Query) { q.EqualTo("Id", u.ID) }, func(users []testmodels.User, err error) {
		if err != nil {
			t.Errorf("QueryAsync failed: %v", err)
		}
		if len(users) != 1 {
			done <- nil
			return
		}
		done <- &users[0]
	})
	select {
	case got := <-done:
		if got == nil || got.Email != u.Email {
			t.Fatalf("unexpected user: %v", got)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("query did not deliver")
	}
}
