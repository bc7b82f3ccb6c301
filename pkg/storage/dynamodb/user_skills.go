package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// AttachUserSkill stores the link and bumps the skill's direction counter in a
// single transaction.
func (s *Store) AttachUserSkill(ctx context.Context, link *models.UserSkill) error {
	item, err := attributevalue.MarshalMap(link)
	if err != nil {
		return storage.Unavailable(err, "failed to marshal user skill")
	}

	counter, err := s.counterItem(models.Counter{
		Entity: models.EntitySkill,
		ID:     link.SkillId,
		Field:  link.Type.CounterField(),
	}, 1)
	if err != nil {
		return err
	}

	return s.transactWrite(ctx, "attach user skill", []writeItem{
		{
			TransactWriteItem: types.TransactWriteItem{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.UserSkills),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(user_skill_id) OR is_active = :false"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":false": boolAV(false),
					},
				},
			},
			conditionErr: apperr.New(apperr.ErrConflict, "user %s already has %s skill %s", link.UserId, link.Type, link.SkillId),
		},
		counter,
	})
}

// DetachUserSkill removes an active link and decrements the skill's direction
// counter in a single transaction.
func (s *Store) DetachUserSkill(ctx context.Context, userID, skillID string, d models.Direction) error {
	counter, err := s.counterItem(models.Counter{
		Entity: models.EntitySkill,
		ID:     skillID,
		Field:  d.CounterField(),
	}, -1)
	if err != nil {
		return err
	}

	return s.transactWrite(ctx, "detach user skill", []writeItem{
		{
			TransactWriteItem: types.TransactWriteItem{
				Delete: &types.Delete{
					TableName:           aws.String(s.Tables.UserSkills),
					Key:                 itemKey(userSkillKey, models.UserSkillID(userID, skillID, d)),
					ConditionExpression: aws.String("attribute_exists(user_skill_id) AND is_active = :true"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":true": boolAV(true),
					},
				},
			},
			conditionErr: apperr.New(apperr.ErrNotFound, "user %s has no %s skill %s", userID, d, skillID),
		},
		counter,
	})
}

// ListUserSkills returns every link owned by the user.
func (s *Store) ListUserSkills(ctx context.Context, userID string) ([]models.UserSkill, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.UserSkills),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": strAV(userID),
		},
	})
	if err != nil {
		return nil, storage.Unavailable(err, "failed to query user skills")
	}

	links := []models.UserSkill{}
	if err := attributevalue.UnmarshalListOfMaps(items, &links); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal user skills")
	}
	return links, nil
}
