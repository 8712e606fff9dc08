/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/suparena/modelstore/datastore/memory"
	"github.com/suparena/modelstore/session"
	"github.com/suparena/modelstore/storagemodels"
)

func seed(t *testing.T, name string, kv ...string) {
	t.Helper()
	cfg := storagemodels.NewConfiguration(name, storagemodels.InMemory())
	err := session.Lease(context.Background(), cfg, func(c *session.Conn) error {
		return c.Write(context.Background(), func(tx *session.WriteTx) error {
			for i := 0; i+1 < len(kv); i += 2 {
				if err := tx.Put("people", kv[i], []byte(kv[i+1])); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("seeding failed: %v", err)
	}
}

func configFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modelstore.yaml")
	content := "default: " + name + "\nconfigurations:\n  " + name + ":\n    inMemory: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "version:") || !strings.Contains(out, "gitCommit:") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestDump(t *testing.T) {
	t.Cleanup(func() { memory.Drop("clidump") })
	seed(t, "clidump", "b", `{"name":"Bob","age":20}`, "a", `{"name":"Alice","age":30}`)
	path := configFile(t, "clidump")

	out, err := run(t, "dump", "people", "-c", path)
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if strings.Index(out, "Bob") < 0 || strings.Index(out, "Bob") > strings.Index(out, "Alice") {
		t.Fatalf("expected both records in insertion order: %s", out)
	}

	out, err = run(t, "dump", "people", "-c", path, "--where", "age=30", "-o", "json")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if !strings.Contains(out, `"key": "a"`) || strings.Contains(out, "Bob") {
		t.Fatalf("unexpected filtered output: %s", out)
	}

	if _, err := run(t, "dump", "people"); err == nil {
		t.Fatalf("expected error without database")
	}
	if _, err := run(t, "dump", "people", "-c", path, "--where", "age"); err == nil {
		t.Fatalf("expected error for malformed filter")
	}
	if _, err := run(t, "dump", "people", "-c", path, "-o", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestDumpFromEnvironment(t *testing.T) {
	t.Cleanup(func() { memory.Drop("clienv") })
	seed(t, "clienv", "x", `{"name":"Xavier"}`)
	t.Setenv("MODELSTORE_CONFIG", configFile(t, "clienv"))

	out, err := run(t, "dump", "people")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if !strings.Contains(out, "Xavier") {
		t.Fatalf("unexpected output: %s", out)
	}
}

type syncBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	written chan struct{}
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := b.buf.Write(p)
	select {
	case b.written <- struct{}{}:
	default:
	}
	return n, err
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	t.Cleanup(func() { memory.Drop("cliwatch") })
	seed(t, "cliwatch", "a", `{"name":"Alice"}`)
	cfg := storagemodels.NewConfiguration("cliwatch", storagemodels.InMemory())

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{written: make(chan struct{}, 1)}
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, cfg, "people", nil, "yaml", out)
	}()

	waitFor := func(s string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for !strings.Contains(out.String(), s) {
			select {
			case <-out.written:
			case <-deadline:
				t.Fatalf("%q not printed, got: %s", s, out.String())
			}
		}
	}
	waitFor("people: 1 records")

	seed(t, "cliwatch", "b", `{"name":"Bob"}`)
	waitFor("people: 2 records")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
}
