package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/storage"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the store.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Tables holds the table name of every collection.
type Tables struct {
	Users        string
	Skills       string
	UserSkills   string
	SwapRequests string
	Transactions string
	Reviews      string
	Messages     string
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client DynamoDBAPI
	Tables Tables
}

// New creates a new Store.
func New(client DynamoDBAPI, tables Tables) *Store {
	return &Store{
		Client: client,
		Tables: tables,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

const (
	userKey        = "user_id"
	skillKey       = "skill_id"
	userSkillKey   = "user_skill_id"
	requestKey     = "request_id"
	transactionKey = "transaction_id"
	reviewKey      = "review_id"
	messageKey     = "message_id"

	maxTransactAttempts = 3
)

func itemKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}

func boolAV(v bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: v}
}

func numAV(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", v)}
}

func strAV(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func isConditionFailed(err error) bool {
	var condCheckFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condCheckFailed)
}

// getItem loads a single record into out. It reports false when no record exists.
func (s *Store) getItem(ctx context.Context, table string, key map[string]types.AttributeValue, noun string, out any) (bool, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, storage.Unavailable(err, "failed to get %s from DynamoDB", noun)
	}

	if result.Item == nil {
		return false, nil
	}

	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, storage.Unavailable(err, "failed to unmarshal %s", noun)
	}

	return true, nil
}

// queryAll runs the query to exhaustion, following LastEvaluatedKey.
func (s *Store) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// scanAll runs the scan to exhaustion, following LastEvaluatedKey.
func (s *Store) scanAll(ctx context.Context, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// writeItem is one element of a multi-item atomic write.
type writeItem struct {
	types.TransactWriteItem

	// floor marks a counter decrement that is dropped when the counter is
	// already at zero.
	floor bool

	// conditionErr is reported when the item's condition fails.
	conditionErr error
}

// transactWrite executes items atomically. Floored decrements whose counter is
// already at zero are dropped and the write is retried without them, as are
// writes cancelled by a concurrent transaction, up to maxTransactAttempts.
func (s *Store) transactWrite(ctx context.Context, op string, items []writeItem) error {
	for attempt := 1; ; attempt++ {
		input := &dynamodb.TransactWriteItemsInput{
			TransactItems: make([]types.TransactWriteItem, 0, len(items)),
		}
		for _, it := range items {
			input.TransactItems = append(input.TransactItems, it.TransactWriteItem)
		}

		_, err := s.Client.TransactWriteItems(ctx, input)
		if err == nil {
			return nil
		}

		var tce *types.TransactionCanceledException
		if !errors.As(err, &tce) {
			return storage.Unavailable(err, "failed to execute %s transaction", op)
		}

		retry := make([]writeItem, 0, len(items))
		retryable := false
		for i, it := range items {
			code := ""
			if i < len(tce.CancellationReasons) {
				code = aws.ToString(tce.CancellationReasons[i].Code)
			}
			switch code {
			case "ConditionalCheckFailed":
				if it.floor {
					retryable = true
					continue
				}
				if it.conditionErr != nil {
					return it.conditionErr
				}
				return apperr.Wrap(apperr.ErrConflict, err, "%s: condition failed", op)
			case "TransactionConflict":
				retryable = true
			}
			retry = append(retry, it)
		}

		if !retryable || attempt == maxTransactAttempts {
			return storage.Unavailable(err, "failed to execute %s transaction", op)
		}
		if len(retry) == 0 {
			return nil
		}
		items = retry
	}
}
