/*
Package storagemodels defines the data structures shared by the modelstore layers.

Key Types:

Configuration:
Immutable description of one logical database, built with functional options:

	cfg := storagemodels.NewConfiguration("main",
	    storagemodels.WithPath("./data/main.db"),
	    storagemodels.WithSchemaVersion(2),
	    storagemodels.WithEncryptionKey(key),
	)

	cache := storagemodels.NewConfiguration("cache", storagemodels.InMemory())

	remote := storagemodels.NewConfiguration("remote",
	    storagemodels.WithDynamoDB(storagemodels.DynamoDBSettings{
	        Region: "us-east-1",
	        Table:  "modelstore",
	    }),
	    storagemodels.WithScanOptions(storagemodels.WithPageSize(25)),
	)

Configurations with the same Key() share one backend instance; their
Fingerprint() (schema version and encryption key) must agree.

ScanOptions:
Paging and retry behaviour of remote backends:

	opts := []ScanOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
