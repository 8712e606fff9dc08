/*
Package datastore defines the storage engine primitives used by modelstore.

A Backend stores opaque records per table:

	type Backend interface {
	    Scan(ctx context.Context, table string) ([]Record, error)
	    Get(ctx context.Context, table, key string) (Record, bool, error)
	    Update(ctx context.Context, fn func(Tx) error) error
	    Close() error
	}

Backends are created by drivers registered under the driver name used in
storagemodels.Configuration:

  - memory: process local databases shared by configuration name
  - bolt: embedded file database based on bbolt, optionally encrypted
  - ddb: DynamoDB tables using a single-table layout

Drivers register themselves in init, so importing a driver package makes it
available through GetDriver.
*/
package datastore
