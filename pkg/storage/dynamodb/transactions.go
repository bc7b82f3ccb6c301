package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// GetTransaction retrieves a transaction by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	var tx models.Transaction
	found, err := s.getItem(ctx, s.Tables.Transactions, itemKey(transactionKey, txID), "transaction", &tx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.ErrNotFound, "transaction %s not found", txID)
	}
	return &tx, nil
}

// ListTransactionsByParticipant returns the transactions in which the user
// holds the given slot, using the user1_id or user2_id GSI.
func (s *Store) ListTransactionsByParticipant(ctx context.Context, p models.Participant, userID string) ([]models.Transaction, error) {
	attr := p.IdField()
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Transactions),
		IndexName:              aws.String(attr + "-index"),
		KeyConditionExpression: aws.String(attr + " = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": strAV(userID),
		},
	})
	if err != nil {
		return nil, storage.Unavailable(err, "failed to query transactions by %s", attr)
	}

	txs := []models.Transaction{}
	if err := attributevalue.UnmarshalListOfMaps(items, &txs); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal transactions")
	}
	return txs, nil
}

// ConfirmTransaction sets the slot's confirmation flag on an in-progress
// transaction whose other slot has not confirmed yet, and returns the
// transaction as stored after the write.
func (s *Store) ConfirmTransaction(ctx context.Context, txID string, p models.Participant, at time.Time) (*models.Transaction, error) {
	updatedAt, err := attributevalue.Marshal(at)
	if err != nil {
		return nil, storage.Unavailable(err, "failed to marshal timestamp")
	}

	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Transactions),
		Key:                 itemKey(transactionKey, txID),
		UpdateExpression:    aws.String("SET #flag = :true, completion_percentage = :half, updated_at = :updated_at"),
		ConditionExpression: aws.String("#status = :in_progress AND (attribute_not_exists(#other) OR #other = :false)"),
		ExpressionAttributeNames: map[string]string{
			"#flag":   p.ConfirmedField(),
			"#other":  p.Other().ConfirmedField(),
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":        boolAV(true),
			":false":       boolAV(false),
			":half":        numAV(50),
			":updated_at":  updatedAt,
			":in_progress": strAV(string(models.TransactionInProgress)),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, apperr.New(apperr.ErrConflict, "transaction %s is no longer awaiting a first confirmation", txID)
		}
		return nil, storage.Unavailable(err, "failed to confirm transaction")
	}

	var tx models.Transaction
	if err := attributevalue.UnmarshalMap(result.Attributes, &tx); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal transaction")
	}
	return &tx, nil
}

var errNotCompletable = errors.New("transaction cannot complete")

// CompleteTransaction sets the slot's confirmation flag, moves the
// transaction to completed and credits both participants' swap counters in
// one transaction. It reports false when the guard fails because the
// transaction left in_progress or the other slot has not confirmed.
func (s *Store) CompleteTransaction(ctx context.Context, tx *models.Transaction, p models.Participant, at time.Time) (bool, error) {
	endDate, err := attributevalue.Marshal(at)
	if err != nil {
		return false, storage.Unavailable(err, "failed to marshal timestamp")
	}

	items := []writeItem{
		{
			TransactWriteItem: types.TransactWriteItem{
				Update: &types.Update{
					TableName:        aws.String(s.Tables.Transactions),
					Key:              itemKey(transactionKey, tx.TransactionId),
					UpdateExpression: aws.String("SET #flag = :true, #status = :completed, actual_end_date = :at, updated_at = :at, completion_percentage = :full"),
					ConditionExpression: aws.String("#status = :in_progress AND #other = :true"),
					ExpressionAttributeNames: map[string]string{
						"#flag":   p.ConfirmedField(),
						"#other":  p.Other().ConfirmedField(),
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":completed":   strAV(string(models.TransactionCompleted)),
						":in_progress": strAV(string(models.TransactionInProgress)),
						":at":          endDate,
						":full":        numAV(100),
						":true":        boolAV(true),
					},
				},
			},
			conditionErr: errNotCompletable,
		},
		s.swapCreditItem(tx.User1Id),
		s.swapCreditItem(tx.User2Id),
	}

	err = s.transactWrite(ctx, "complete transaction", items)
	if errors.Is(err, errNotCompletable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// swapCreditItem increments both swap counters of a user. Both fields live on
// the same item, and a transaction may touch each item only once.
func (s *Store) swapCreditItem(userID string) writeItem {
	return writeItem{
		TransactWriteItem: types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(s.Tables.Users),
				Key:                 itemKey(userKey, userID),
				UpdateExpression:    aws.String("ADD successful_swaps :one, total_swaps :one"),
				ConditionExpression: aws.String("attribute_exists(user_id)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":one": numAV(1),
				},
			},
		},
		conditionErr: apperr.New(apperr.ErrNotFound, "user %s not found", userID),
	}
}
