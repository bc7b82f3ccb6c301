package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// DisputeTransaction flags an in-progress transaction as disputed.
func (s *Store) DisputeTransaction(ctx context.Context, txID, reason string, at time.Time) error {
	return s.leaveInProgress(ctx, txID, models.TransactionDisputed, at,
		"is_disputed = :true, dispute_reason = :reason",
		map[string]types.AttributeValue{
			":true":   boolAV(true),
			":reason": strAV(reason),
		})
}

// CancelTransaction cancels an in-progress transaction.
func (s *Store) CancelTransaction(ctx context.Context, txID string, at time.Time) error {
	return s.leaveInProgress(ctx, txID, models.TransactionCancelled, at, "", nil)
}

// leaveInProgress moves an in-progress transaction to status, applying any extra
// SET clauses in the same conditional update.
func (s *Store) leaveInProgress(ctx context.Context, txID string, status models.TransactionStatus, at time.Time, extra string, extraValues map[string]types.AttributeValue) error {
	updatedAt, err := attributevalue.Marshal(at)
	if err != nil {
		return storage.Unavailable(err, "failed to marshal timestamp")
	}

	expr := "SET #status = :status, updated_at = :updated_at"
	if extra != "" {
		expr += ", " + extra
	}
	values := map[string]types.AttributeValue{
		":status":      strAV(string(status)),
		":updated_at":  updatedAt,
		":in_progress": strAV(string(models.TransactionInProgress)),
	}
	for k, v := range extraValues {
		values[k] = v
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Tables.Transactions),
		Key:                       itemKey(transactionKey, txID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("#status = :in_progress"),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailed(err) {
			return apperr.New(apperr.ErrInvalidTransition, "transaction %s is not in progress", txID)
		}
		return storage.Unavailable(err, "failed to move transaction to %s", status)
	}
	return nil
}
