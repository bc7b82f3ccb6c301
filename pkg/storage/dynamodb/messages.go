package dynamodb

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// CreateMessage stores a system message.
func (s *Store) CreateMessage(ctx context.Context, msg *models.SystemMessage) error {
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return storage.Unavailable(err, "failed to marshal system message")
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Tables.Messages),
		Item:      item,
	})
	if err != nil {
		return storage.Unavailable(err, "failed to put system message")
	}
	return nil
}

// ListActiveMessages returns active messages whose display window has not ended.
func (s *Store) ListActiveMessages(ctx context.Context, now time.Time) ([]models.SystemMessage, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.Tables.Messages),
		FilterExpression: aws.String("is_active = :true AND show_until > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": boolAV(true),
			":now":  &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		return nil, storage.Unavailable(err, "failed to scan system messages")
	}

	msgs := []models.SystemMessage{}
	if err := attributevalue.UnmarshalListOfMaps(items, &msgs); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal system messages")
	}
	return msgs, nil
}
