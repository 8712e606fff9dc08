/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/drone/envsubst"
	"github.com/joho/godotenv"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/storagemodels"
	"gopkg.in/yaml.v3"
)

// DynamoDB locates a DynamoDB table.
type DynamoDB struct {
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Endpoint  string `yaml:"endpoint"`
}

// Entry describes one named configuration.
type Entry struct {
	Driver        string    `yaml:"driver"`
	Path          string    `yaml:"path"`
	SchemaVersion uint64    `yaml:"schemaVersion"`
	EncryptionKey string    `yaml:"encryptionKey"` // hex encoded, 32 bytes
	InMemory      bool      `yaml:"inMemory"`
	DynamoDB      *DynamoDB `yaml:"dynamodb"`
	PageSize      int32     `yaml:"pageSize"`
	MaxRetries    int       `yaml:"maxRetries"`
}

// File is the content of a configuration file:
//
//	default: local
//	configurations:
//	  local:
//	    path: ${DATA_DIR}/models.db
//	    schemaVersion: 3
//	  remote:
//	    dynamodb:
//	      region: eu-central-1
//	      table: models
//	models:
//	  Order: remote
type File struct {
	Default        string            `yaml:"default"`
	Configurations map[string]Entry  `yaml:"configurations"`
	Models         map[string]string `yaml:"models"`
}

// Load reads the configuration file at path. Variables of a .env file in
// the working directory are loaded first; ${VAR} references in the file
// are replaced by environment values.
func Load(path string) (*File, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug("loaded {{count}} configurations from {{path}}", "count", len(f.Configurations), "path", path)
	return f, nil
}

// Parse decodes a configuration file after environment substitution.
func Parse(data []byte) (*File, error) {
	expanded, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("substituting environment: %w", err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.NewValidationError("", err.Error())
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Default != "" {
		if _, ok := f.Configurations[f.Default]; !ok {
			return errors.NewValidationError("default", fmt.Sprintf("unknown configuration %q", f.Default))
		}
	}
	for model, name := range f.Models {
		if _, ok := f.Configurations[name]; !ok {
			return errors.NewValidationError("models."+model, fmt.Sprintf("unknown configuration %q", name))
		}
	}
	for _, name := range f.Names() {
		if _, err := f.Configuration(name); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the sorted names of all configurations.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Configurations))
	for name := range f.Configurations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configuration builds the named configuration.
func (f *File) Configuration(name string) (storagemodels.Configuration, error) {
	e, ok := f.Configurations[name]
	if !ok {
		return storagemodels.Configuration{}, errors.NewNotFoundError("configuration", name)
	}

	opts := []storagemodels.ConfigOption{storagemodels.WithSchemaVersion(e.SchemaVersion)}
	if e.Driver != "" {
		opts = append(opts, storagemodels.WithDriver(e.Driver))
	}
	if e.Path != "" {
		opts = append(opts, storagemodels.WithPath(e.Path))
	}
	if e.InMemory {
		opts = append(opts, storagemodels.InMemory())
	}
	if e.EncryptionKey != "" {
		key, err := hex.DecodeString(e.EncryptionKey)
		if err != nil {
			return storagemodels.Configuration{}, errors.NewValidationError("configurations."+name+".encryptionKey", "must be hex encoded")
		}
		opts = append(opts, storagemodels.WithEncryptionKey(key))
	}
	if e.DynamoDB != nil {
		opts = append(opts, storagemodels.WithDynamoDB(storagemodels.DynamoDBSettings(*e.DynamoDB)))
	}
	var scan []storagemodels.ScanOption
	if e.PageSize > 0 {
		scan = append(scan, storagemodels.WithPageSize(e.PageSize))
	}
	if e.MaxRetries > 0 {
		scan = append(scan, storagemodels.WithMaxRetries(e.MaxRetries))
	}
	if len(scan) > 0 {
		opts = append(opts, storagemodels.WithScanOptions(scan...))
	}

	cfg := storagemodels.NewConfiguration(name, opts...)
	if err := cfg.Validate(); err != nil {
		return storagemodels.Configuration{}, errors.NewValidationError("configurations."+name, err.Error())
	}
	return cfg, nil
}

// Apply sets the default configuration of r and binds the listed models,
// which must have been registered with registry.RegisterModel.
func (f *File) Apply(r *registry.Registry) error {
	if f.Default != "" {
		cfg, err := f.Configuration(f.Default)
		if err != nil {
			return err
		}
		r.SetDefault(cfg)
	}
	models := make([]string, 0, len(f.Models))
	for model := range f.Models {
		models = append(models, model)
	}
	sort.Strings(models)
	for _, model := range models {
		typ, err := registry.LookupModel(model)
		if err != nil {
			return err
		}
		cfg, err := f.Configuration(f.Models[model])
		if err != nil {
			return err
		}
		r.Register(typ, cfg)
		log.Debug("bound model {{model}} to {{configuration}}", "model", model, "configuration", cfg.Name())
	}
	return nil
}
