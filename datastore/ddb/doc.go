/*
Package ddb provides a DynamoDB implementation of the datastore.Backend
interface.

All model tables of one configuration share a single DynamoDB table using a
single-table layout:

	PK         "T#<model table>"     partition key
	SK         "<record key>"         sort key
	Seq        N                      insertion order, kept on overwrite
	Data       B                      encoded model
	EntityType S                      model table, for ad-hoc inspection

A schema item (PK "__modelstore", SK "schema") records the schema version on
first open; later opens with a different version fail.

Scans page through the partition with configurable retries:

	cfg := storagemodels.NewConfiguration("remote",
	    storagemodels.WithDynamoDB(storagemodels.DynamoDBSettings{
	        Region: "us-east-1",
	        Table:  "models",
	    }),
	    storagemodels.WithScanOptions(
	        storagemodels.WithPageSize(25),
	        storagemodels.WithMaxRetries(3),
	    ),
	)

Writes of one transaction are committed with TransactWriteItems and are
limited to MaxTransactionItems distinct records.
*/
package ddb
