/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/storagemodels"
)

const sample = `
default: local
configurations:
  local:
    path: ${MODELSTORE_TEST_DIR}/models.db
    schemaVersion: 3
    encryptionKey: 000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f
  scratch:
    inMemory: true
  remote:
    dynamodb:
      region: eu-central-1
      table: models
      endpoint: http://localhost:8000
    pageSize: 50
    maxRetries: 2
models:
  ConfigTestOrder: remote
`

type ConfigTestOrder struct {
	ID string
}

func init() {
	registry.RegisterModel[ConfigTestOrder]("ConfigTestOrder")
}

func TestParse(t *testing.T) {
	t.Setenv("MODELSTORE_TEST_DIR", "/var/lib/app")

	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := deep.Equal(f.Names(), []string{"local", "remote", "scratch"}); diff != nil {
		t.Fatalf("unexpected names: %v", diff)
	}

	local, err := f.Configuration("local")
	if err != nil {
		t.Fatalf("Configuration failed: %v", err)
	}
	if local.Driver() != storagemodels.DriverBolt || local.Path() != "/var/lib/app/models.db" {
		t.Errorf("unexpected local configuration: %s", local)
	}
	if local.SchemaVersion() != 3 || len(local.EncryptionKey()) != 32 || local.EncryptionKey()[31] != 0x1f {
		t.Errorf("unexpected schema version or key in %s", local)
	}

	scratch, _ := f.Configuration("scratch")
	if !scratch.IsInMemory() {
		t.Errorf("scratch should be in memory")
	}

	remote, _ := f.Configuration("remote")
	if remote.Driver() != storagemodels.DriverDynamoDB || remote.DynamoDB().Table != "models" {
		t.Errorf("unexpected remote configuration: %s", remote)
	}
	if remote.ScanOptions().PageSize != 50 || remote.ScanOptions().MaxRetries != 2 {
		t.Errorf("unexpected scan options: %+v", remote.ScanOptions())
	}

	if _, err := f.Configuration("missing"); !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty", "", ""},
		{"UnknownDefault", "default: nope\n", "default"},
		{"UnknownModelConfiguration", "configurations:\n  a:\n    inMemory: true\nmodels:\n  X: b\n", "models.X"},
		{"BadKey", "configurations:\n  a:\n    path: x.db\n    encryptionKey: zz\n", "encryptionKey"},
		{"ShortKey", "configurations:\n  a:\n    path: x.db\n    encryptionKey: 0102\n", "32 bytes"},
		{"BoltWithoutPath", "configurations:\n  a:\n    driver: bolt\n", "requires a path"},
		{"UnknownField", "configurations:\n  a:\n    colour: red\n", "colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Setenv("MODELSTORE_TEST_DIR", t.TempDir())
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	r := registry.NewRegistry()
	if err := f.Apply(r); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	cfg, err := r.Resolve(registry.TypeOf[ConfigTestOrder]())
	if err != nil || cfg.Name() != "remote" {
		t.Fatalf("expected remote, got %s, %v", cfg.Name(), err)
	}
	cfg, err = r.Resolve(registry.TypeOf[string]())
	if err != nil || cfg.Name() != "local" {
		t.Fatalf("expected default local, got %s, %v", cfg.Name(), err)
	}

	f.Models["Unregistered"] = "scratch"
	if err := f.Apply(registry.NewRegistry()); !errors.IsNotFound(err) {
		t.Fatalf("expected unknown model, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	os.Unsetenv("MODELSTORE_TEST_TABLE")
	t.Cleanup(func() { os.Unsetenv("MODELSTORE_TEST_TABLE") })
	if err := os.WriteFile(".env", []byte("MODELSTORE_TEST_TABLE=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "modelstore.yaml")
	content := "default: remote\nconfigurations:\n  remote:\n    dynamodb:\n      table: ${MODELSTORE_TEST_TABLE}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg, _ := f.Configuration("remote")
	if cfg.DynamoDB().Table != "from-dotenv" {
		t.Fatalf("expected table from .env, got %q", cfg.DynamoDB().Table)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
