package dynamodb

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// CreateSwapRequest stores a pending request and increments the receiver's
// pending_requests counter in a single transaction.
func (s *Store) CreateSwapRequest(ctx context.Context, req *models.SwapRequest) error {
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return storage.Unavailable(err, "failed to marshal swap request")
	}

	counter, err := s.counterItem(models.Counter{
		Entity: models.EntityUser,
		ID:     req.ReceiverId,
		Field:  models.FieldPendingRequests,
	}, 1)
	if err != nil {
		return err
	}

	return s.transactWrite(ctx, "create swap request", []writeItem{
		{
			TransactWriteItem: types.TransactWriteItem{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.SwapRequests),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(request_id)"),
				},
			},
			conditionErr: apperr.New(apperr.ErrConflict, "swap request %s already exists", req.RequestId),
		},
		counter,
	})
}

// GetSwapRequest retrieves a request by its ID.
func (s *Store) GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	var req models.SwapRequest
	found, err := s.getItem(ctx, s.Tables.SwapRequests, itemKey(requestKey, requestID), "swap request", &req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.ErrNotFound, "swap request %s not found", requestID)
	}
	return &req, nil
}

// ListSwapRequestsBySender returns every request the user sent.
func (s *Store) ListSwapRequestsBySender(ctx context.Context, userID string) ([]models.SwapRequest, error) {
	return s.listSwapRequests(ctx, "sender_id", userID)
}

// ListSwapRequestsByReceiver returns every request the user received.
func (s *Store) ListSwapRequestsByReceiver(ctx context.Context, userID string) ([]models.SwapRequest, error) {
	return s.listSwapRequests(ctx, "receiver_id", userID)
}

func (s *Store) listSwapRequests(ctx context.Context, attr, userID string) ([]models.SwapRequest, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.SwapRequests),
		IndexName:              aws.String(attr + "-index"),
		KeyConditionExpression: aws.String(attr + " = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": strAV(userID),
		},
	})
	if err != nil {
		return nil, storage.Unavailable(err, "failed to query swap requests by %s", attr)
	}

	reqs := []models.SwapRequest{}
	if err := attributevalue.UnmarshalListOfMaps(items, &reqs); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal swap requests")
	}
	return reqs, nil
}

// ListOverdueSwapRequests returns pending requests whose expiry is at or before
// now, using the status-expires_at GSI.
func (s *Store) ListOverdueSwapRequests(ctx context.Context, now time.Time) ([]models.SwapRequest, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.SwapRequests),
		IndexName:              aws.String("status-expires_at-index"),
		KeyConditionExpression: aws.String("#status = :status AND expires_at <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": strAV(string(models.RequestPending)),
			":now":    &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		return nil, storage.Unavailable(err, "failed to query overdue swap requests")
	}

	reqs := []models.SwapRequest{}
	if err := attributevalue.UnmarshalListOfMaps(items, &reqs); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal swap requests")
	}
	return reqs, nil
}
