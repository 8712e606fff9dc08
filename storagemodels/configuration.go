/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash"
)

// Known backend drivers
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverDynamoDB = "dynamodb"
)

// DynamoDBSettings locates a DynamoDB table used as backend.
type DynamoDBSettings struct {
	Region    string
	Table     string
	AccessKey string
	SecretKey string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// Configuration describes everything needed to open a connection to one
// logical database. It is immutable once constructed; copies share nothing
// mutable.
type Configuration struct {
	name          string
	driver        string
	path          string
	schemaVersion uint64
	encryptionKey []byte
	inMemory      bool
	dynamo        DynamoDBSettings
	scan          ScanOptions
}

// ConfigOption is a functional option used by NewConfiguration
type ConfigOption func(*Configuration)

// NewConfiguration builds a configuration. Without an explicit driver the
// driver is derived: in-memory flag -> memory, path -> bolt, DynamoDB table ->
// dynamodb, otherwise memory.
func NewConfiguration(name string, opts ...ConfigOption) Configuration {
	c := Configuration{
		name: name,
		scan: DefaultScanOptions(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.driver == "" {
		switch {
		case c.inMemory:
			c.driver = DriverMemory
		case c.path != "":
			c.driver = DriverBolt
		case c.dynamo.Table != "":
			c.driver = DriverDynamoDB
		default:
			c.driver = DriverMemory
		}
	}
	if c.inMemory {
		c.driver = DriverMemory
	}
	return c
}

// WithDriver selects the backend driver explicitly
func WithDriver(driver string) ConfigOption {
	return func(c *Configuration) {
		c.driver = driver
	}
}

// WithPath sets the database file location
func WithPath(path string) ConfigOption {
	return func(c *Configuration) {
		c.path = path
	}
}

// WithSchemaVersion sets the schema version expected in the database
func WithSchemaVersion(version uint64) ConfigOption {
	return func(c *Configuration) {
		c.schemaVersion = version
	}
}

// WithEncryptionKey sets the at-rest encryption key. The key is copied.
func WithEncryptionKey(key []byte) ConfigOption {
	return func(c *Configuration) {
		c.encryptionKey = append([]byte(nil), key...)
	}
}

// InMemory makes the configuration use a process local in-memory database
// identified by the configuration name.
func InMemory() ConfigOption {
	return func(c *Configuration) {
		c.inMemory = true
	}
}

// WithDynamoDB configures a DynamoDB table as backend
func WithDynamoDB(settings DynamoDBSettings) ConfigOption {
	return func(c *Configuration) {
		c.dynamo = settings
	}
}

// WithScanOptions adjusts paging of remote backends
func WithScanOptions(opts ...ScanOption) ConfigOption {
	return func(c *Configuration) {
		for _, opt := range opts {
			opt(&c.scan)
		}
	}
}

func (c Configuration) Name() string { return c.name }
func (c Configuration) Driver() string { return c.driver }
func (c Configuration) Path() string { return c.path }
func (c Configuration) SchemaVersion() uint64 { return c.schemaVersion }
func (c Configuration) IsInMemory() bool { return c.driver == DriverMemory }
func (c Configuration) DynamoDB() DynamoDBSettings { return c.dynamo }
func (c Configuration) ScanOptions() ScanOptions { return c.scan }

// EncryptionKey returns a copy of the encryption key, nil if none is set.
func (c Configuration) EncryptionKey() []byte {
	if len(c.encryptionKey) == 0 {
		return nil
	}
	return append([]byte(nil), c.encryptionKey...)
}

// IsZero reports whether c is the zero Configuration.
func (c Configuration) IsZero() bool {
	return c.name == "" && c.driver == ""
}

// Key identifies the logical database addressed by the configuration.
// Configurations with the same key share one backend instance.
func (c Configuration) Key() string {
	switch c.driver {
	case DriverBolt:
		p := c.path
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		return DriverBolt + ":" + filepath.Clean(p)
	case DriverDynamoDB:
		return fmt.Sprintf("%s:%s/%s/%s", DriverDynamoDB, c.dynamo.Region, c.dynamo.Endpoint, c.dynamo.Table)
	default:
		return c.driver + ":" + c.name
	}
}

// Fingerprint summarizes the parameters that must agree between two
// configurations sharing a Key: schema version and encryption key.
func (c Configuration) Fingerprint() uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%d:", c.schemaVersion)
	h.Write(c.encryptionKey)
	return h.Sum64()
}

// Validate checks that the configuration can be handed to its driver.
func (c Configuration) Validate() error {
	if c.name == "" {
		return fmt.Errorf("configuration name must not be empty")
	}
	switch c.driver {
	case DriverMemory:
	case DriverBolt:
		if strings.TrimSpace(c.path) == "" {
			return fmt.Errorf("configuration %q: bolt driver requires a path", c.name)
		}
	case DriverDynamoDB:
		if c.dynamo.Table == "" {
			return fmt.Errorf("configuration %q: dynamodb driver requires a table", c.name)
		}
	default:
		// unknown drivers are reported by the driver lookup
	}
	if n := len(c.encryptionKey); n != 0 && n != 32 {
		return fmt.Errorf("configuration %q: encryption key must be 32 bytes, got %d", c.name, n)
	}
	return nil
}

func (c Configuration) String() string {
	return fmt.Sprintf("%s(%s)", c.name, c.Key())
}
