/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is an in-process stand-in for the operations the backend uses.
type fakeAPI struct {
	mu           sync.Mutex
	items        map[string]map[string]types.AttributeValue
	queryErrors  []error
	queryCalls   int
	transactErr  error
	transactions []*sdk.TransactWriteItemsInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func id(key map[string]types.AttributeValue) string {
	return str(key[attrPK]) + "|" + str(key[attrSK])
}

func (f *fakeAPI) GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[id(params.Key)]}, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := id(params.Item)
	if params.ConditionExpression != nil && f.items[k] != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	f.items[k] = params.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeAPI) Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if len(f.queryErrors) > 0 {
		err := f.queryErrors[0]
		f.queryErrors = f.queryErrors[1:]
		return nil, err
	}

	pk := str(params.ExpressionAttributeValues[":pk"])
	var sks []string
	for _, it := range f.items {
		if str(it[attrPK]) == pk {
			sks = append(sks, str(it[attrSK]))
		}
	}
	sort.Strings(sks)

	start := 0
	if params.ExclusiveStartKey != nil {
		last := str(params.ExclusiveStartKey[attrSK])
		start = sort.SearchStrings(sks, last) + 1
	}
	end := len(sks)
	if params.Limit != nil && start+int(*params.Limit) < end {
		end = start + int(*params.Limit)
	}

	out := &sdk.QueryOutput{}
	for _, sk := range sks[start:end] {
		out.Items = append(out.Items, f.items[pk+"|"+sk])
	}
	if end < len(sks) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: pk},
			attrSK: &types.AttributeValueMemberS{Value: sks[end-1]},
		}
	}
	return out, nil
}

func (f *fakeAPI) TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, params)
	if f.transactErr != nil {
		return nil, f.transactErr
	}

	for _, ti := range params.TransactItems {
		switch {
		case ti.Delete != nil:
			delete(f.items, id(ti.Delete.Key))
		case ti.Update != nil:
			k := id(ti.Update.Key)
			vals := ti.Update.ExpressionAttributeValues
			it := f.items[k]
			if it == nil {
				it = map[string]types.AttributeValue{
					attrPK:  ti.Update.Key[attrPK],
					attrSK:  ti.Update.Key[attrSK],
					attrSeq: vals[":s"],
				}
				f.items[k] = it
			}
			it[attrData] = vals[":d"]
			it[attrEntityType] = vals[":t"]
		}
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}

func seqOf(it map[string]types.AttributeValue) uint64 {
	n, _ := strconv.ParseUint(it[attrSeq].(*types.AttributeValueMemberN).Value, 10, 64)
	return n
}
