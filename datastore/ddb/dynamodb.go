/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/storagemodels"
)

func init() {
	datastore.RegisterDriver(storagemodels.DriverDynamoDB, datastore.DriverFunc(Open))
}

// Attribute names of the single-table item layout.
const (
	attrPK         = "PK"
	attrSK         = "SK"
	attrSeq        = "Seq"
	attrData       = "Data"
	attrEntityType = "EntityType"

	// partition of the schema item, also a reserved table prefix
	metaPartition = "__modelstore"
	metaSortKey   = "schema"
	attrVersion   = "SchemaVersion"

	// MaxTransactionItems is the DynamoDB limit for TransactWriteItems.
	MaxTransactionItems = 100
)

// API is the subset of the DynamoDB client used by the backend.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
}

var _ API = (*sdk.Client)(nil)

// DynamodbDataStore implements datastore.Backend on one DynamoDB table.
// Model tables become partitions; every record is one item.
type DynamodbDataStore struct {
	client    API
	tableName string
	scan      storagemodels.ScanOptions
	seq       sequence
}

var _ datastore.Backend = (*DynamodbDataStore)(nil)

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are
// used if given, the default credential chain otherwise. A non-empty
// endpoint redirects the client, e.g. to DynamoDB Local.
func NewDynamoDBClient(ctx context.Context, settings storagemodels.DynamoDBSettings) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(settings.Region),
	}
	if settings.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		}
	})

	log.Debug("DynamoDB client initialized for table {{table}} in region {{region}}",
		"table", settings.Table, "region", settings.Region)
	return client, nil
}

// Open connects to the table named in the configuration and verifies the
// schema version recorded there.
func Open(ctx context.Context, cfg storagemodels.Configuration) (datastore.Backend, error) {
	if cfg.EncryptionKey() != nil {
		return nil, errors.New("dynamodb backend does not support encryption keys")
	}
	settings := cfg.DynamoDB()
	if settings.Table == "" {
		return nil, errors.New("dynamodb configuration requires a table")
	}

	client, err := NewDynamoDBClient(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return NewDynamodbDataStore(ctx, client, settings.Table, cfg.SchemaVersion(), cfg.ScanOptions())
}

// NewDynamodbDataStore constructs a backend on an existing client.
func NewDynamodbDataStore(ctx context.Context, client API, tableName string, schemaVersion uint64, scan storagemodels.ScanOptions) (*DynamodbDataStore, error) {
	d := &DynamodbDataStore{
		client:    client,
		tableName: tableName,
		scan:      scan,
	}
	if err := d.checkSchema(ctx, schemaVersion); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DynamodbDataStore) checkSchema(ctx context.Context, version uint64) error {
	item := map[string]types.AttributeValue{
		attrPK:      &types.AttributeValueMemberS{Value: metaPartition},
		attrSK:      &types.AttributeValueMemberS{Value: metaSortKey},
		attrVersion: &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
	}
	_, err := d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err == nil {
		return nil
	}
	var cfe *types.ConditionalCheckFailedException
	if !errors.As(err, &cfe) {
		return fmt.Errorf("PutItem schema failed: %w", err)
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            itemKey(metaPartition, metaSortKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("GetItem schema error: %w", err)
	}
	var stored struct {
		SchemaVersion uint64
	}
	if err := attributevalue.UnmarshalMap(out.Item, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal schema item: %w", err)
	}
	if stored.SchemaVersion != version {
		return fmt.Errorf("table %s has schema version %d, configuration expects %d", d.tableName, stored.SchemaVersion, version)
	}
	return nil
}

func partition(table string) string {
	return "T#" + table
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// Get retrieves a single record with a strongly consistent read.
func (d *DynamodbDataStore) Get(ctx context.Context, table, key string) (datastore.Record, bool, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            itemKey(partition(table), key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return datastore.Record{}, false, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return datastore.Record{}, false, nil
	}
	rec, err := decodeItem(out.Item)
	if err != nil {
		return datastore.Record{}, false, err
	}
	return rec, true, nil
}

type item struct {
	SK   string
	Seq  uint64
	Data []byte
}

func decodeItem(av map[string]types.AttributeValue) (datastore.Record, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return datastore.Record{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return datastore.Record{Key: it.SK, Seq: it.Seq, Data: it.Data}, nil
}

type writeOp struct {
	table string
	key   string
	data  []byte
	del   bool
}

type tx struct {
	ops   []writeOp
	index map[string]int
}

func (t *tx) add(o writeOp) error {
	if o.table == "" || o.key == "" {
		return errors.New("table and key must not be empty")
	}
	if len(o.table) >= 2 && o.table[:2] == "__" {
		return fmt.Errorf("table name %q is reserved", o.table)
	}
	id := o.table + "\x00" + o.key
	if i, ok := t.index[id]; ok {
		// DynamoDB rejects two actions on one item, the last one wins
		t.ops[i] = o
		return nil
	}
	if len(t.ops) >= MaxTransactionItems {
		return fmt.Errorf("transaction exceeds %d items", MaxTransactionItems)
	}
	t.index[id] = len(t.ops)
	t.ops = append(t.ops, o)
	return nil
}

func (t *tx) Put(table, key string, data []byte) error {
	return t.add(writeOp{table: table, key: key, data: append([]byte(nil), data...)})
}

func (t *tx) Delete(table, key string) error {
	return t.add(writeOp{table: table, key: key, del: true})
}

// Update collects the writes of fn and commits them with a single
// TransactWriteItems call. Existing items keep their sequence number.
func (d *DynamodbDataStore) Update(ctx context.Context, fn func(datastore.Tx) error) error {
	t := &tx{index: make(map[string]int)}
	if err := fn(t); err != nil {
		return err
	}
	if len(t.ops) == 0 {
		return nil
	}

	input := d.buildTransaction(t.ops)
	if _, err := d.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("transaction cancelled: %w", err)
		}
		return fmt.Errorf("TransactWriteItems failed: %w", err)
	}
	return nil
}

func (d *DynamodbDataStore) buildTransaction(ops []writeOp) *sdk.TransactWriteItemsInput {
	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, o := range ops {
		key := itemKey(partition(o.table), o.key)
		if o.del {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{TableName: &d.tableName, Key: key},
			})
			continue
		}
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:        &d.tableName,
				Key:              key,
				UpdateExpression: aws.String("SET #d = :d, #t = :t, #s = if_not_exists(#s, :s)"),
				ExpressionAttributeNames: map[string]string{
					"#d": attrData,
					"#t": attrEntityType,
					"#s": attrSeq,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":d": &types.AttributeValueMemberB{Value: o.data},
					":t": &types.AttributeValueMemberS{Value: o.table},
					":s": &types.AttributeValueMemberN{Value: strconv.FormatUint(d.seq.next(), 10)},
				},
			},
		})
	}
	return &sdk.TransactWriteItemsInput{TransactItems: items}
}

// Close releases nothing; the SDK client has no connection state.
func (d *DynamodbDataStore) Close() error {
	return nil
}

// sequence hands out strictly increasing, time based sequence numbers so
// insertion order survives across processes as long as clocks agree.
type sequence struct {
	mu   sync.Mutex
	last uint64
}

func (s *sequence) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := uint64(time.Now().UnixNano())
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}
