/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/storagemodels"
)

// Scan queries the partition of table page by page and returns its records
// ordered by sequence number.
func (d *DynamodbDataStore) Scan(ctx context.Context, table string) ([]datastore.Record, error) {
	options := d.scan
	progress := storagemodels.ScanProgress{
		Table:     table,
		StartTime: time.Now(),
	}

	input := &sdk.QueryInput{
		TableName:              &d.tableName,
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partition(table)},
		},
		ConsistentRead: aws.Bool(true),
	}
	if options.PageSize > 0 {
		input.Limit = aws.Int32(options.PageSize)
	}

	var records []datastore.Record
	for {
		out, retries, err := d.queryWithRetry(ctx, input, options)
		progress.Retries += retries
		if err != nil {
			return nil, err
		}
		progress.PagesProcessed++

		for _, it := range out.Items {
			rec, err := decodeItem(it)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
			progress.ItemsProcessed++
		}

		if options.ProgressHandler != nil {
			options.ProgressHandler(progress)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	log.Trace("scanned {{table}}: {{items}} items in {{pages}} pages",
		"table", table, "items", progress.ItemsProcessed, "pages", progress.PagesProcessed)
	datastore.SortBySeq(records)
	return records, nil
}

// queryWithRetry executes a query with linear backoff on retryable errors.
// It also reports how many retries were needed.
func (d *DynamodbDataStore) queryWithRetry(
	ctx context.Context,
	input *sdk.QueryInput,
	options storagemodels.ScanOptions,
) (*sdk.QueryOutput, int, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		default:
		}

		out, err := d.client.Query(ctx, input)
		if err == nil {
			return out, attempt, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, attempt, fmt.Errorf("query failed: %w", err)
		}

		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			log.Debug("retrying query on {{table}} after {{backoff}}", "table", *input.TableName, "backoff", backoff, "error", err)
			select {
			case <-ctx.Done():
				return nil, attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, options.MaxRetries, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var (
		pte *types.ProvisionedThroughputExceededException
		rle *types.RequestLimitExceeded
		ise *types.InternalServerError
	)
	if errors.As(err, &pte) || errors.As(err, &rle) || errors.As(err, &ise) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
