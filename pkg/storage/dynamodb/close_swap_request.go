package dynamodb

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// CloseSwapRequest moves a pending request to req.Status and releases the
// receiver's pending slot. An accepted request also creates its transaction.
// Everything is written in one transaction guarded by the request still being
// pending, so exactly one caller can close a request.
func (s *Store) CloseSwapRequest(ctx context.Context, req *models.SwapRequest, tx *models.Transaction) error {
	updatedAt, err := attributevalue.Marshal(req.UpdatedAt)
	if err != nil {
		return storage.Unavailable(err, "failed to marshal timestamp")
	}

	sets := []string{"#status = :status", "updated_at = :updated_at", "response_message = :response_message"}
	values := map[string]types.AttributeValue{
		":status":           strAV(string(req.Status)),
		":pending":          strAV(string(models.RequestPending)),
		":updated_at":       updatedAt,
		":response_message": strAV(req.ResponseMessage),
	}
	if req.RespondedAt != nil {
		respondedAt, err := attributevalue.Marshal(*req.RespondedAt)
		if err != nil {
			return storage.Unavailable(err, "failed to marshal timestamp")
		}
		sets = append(sets, "responded_at = :responded_at")
		values[":responded_at"] = respondedAt
	}
	if tx != nil {
		sets = append(sets, "transaction_id = :transaction_id")
		values[":transaction_id"] = strAV(tx.TransactionId)
	}

	items := []writeItem{
		{
			TransactWriteItem: types.TransactWriteItem{
				Update: &types.Update{
					TableName:                 aws.String(s.Tables.SwapRequests),
					Key:                       itemKey(requestKey, req.RequestId),
					UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
					ConditionExpression:       aws.String("#status = :pending"),
					ExpressionAttributeNames:  map[string]string{"#status": "status"},
					ExpressionAttributeValues: values,
				},
			},
			conditionErr: apperr.New(apperr.ErrInvalidTransition, "swap request %s is no longer pending", req.RequestId),
		},
	}

	if tx != nil {
		txItem, err := attributevalue.MarshalMap(tx)
		if err != nil {
			return storage.Unavailable(err, "failed to marshal transaction")
		}
		items = append(items, writeItem{
			TransactWriteItem: types.TransactWriteItem{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.Transactions),
					Item:                txItem,
					ConditionExpression: aws.String("attribute_not_exists(transaction_id)"),
				},
			},
			conditionErr: apperr.New(apperr.ErrConflict, "transaction %s already exists", tx.TransactionId),
		})
	}

	counter, err := s.counterItem(models.Counter{
		Entity: models.EntityUser,
		ID:     req.ReceiverId,
		Field:  models.FieldPendingRequests,
	}, -1)
	if err != nil {
		return err
	}
	items = append(items, counter)

	return s.transactWrite(ctx, "close swap request", items)
}
