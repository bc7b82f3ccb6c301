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

// EnsureSkill inserts the skill unless one with the same ID exists, in which
// case the stored skill is returned untouched.
func (s *Store) EnsureSkill(ctx context.Context, skill *models.Skill) (*models.Skill, bool, error) {
	item, err := attributevalue.MarshalMap(skill)
	if err != nil {
		return nil, false, storage.Unavailable(err, "failed to marshal skill")
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Skills),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(skill_id)"),
	})
	if err == nil {
		return skill, true, nil
	}
	if !isConditionFailed(err) {
		return nil, false, storage.Unavailable(err, "failed to put skill")
	}

	existing, err := s.GetSkill(ctx, skill.SkillId)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetSkill retrieves a skill by its normalized ID.
func (s *Store) GetSkill(ctx context.Context, skillID string) (*models.Skill, error) {
	var skill models.Skill
	found, err := s.getItem(ctx, s.Tables.Skills, itemKey(skillKey, skillID), "skill", &skill)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.New(apperr.ErrNotFound, "skill %s not found", skillID)
	}
	return &skill, nil
}

// ListSkills returns every skill in the catalogue.
func (s *Store) ListSkills(ctx context.Context) ([]models.Skill, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Skills),
	})
	if err != nil {
		return nil, storage.Unavailable(err, "failed to scan skills")
	}

	skills := []models.Skill{}
	if err := attributevalue.UnmarshalListOfMaps(items, &skills); err != nil {
		return nil, storage.Unavailable(err, "failed to unmarshal skills")
	}
	return skills, nil
}

// FlagSkill marks a skill as flagged for moderation.
func (s *Store) FlagSkill(ctx context.Context, skillID string) error {
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return storage.Unavailable(err, "failed to marshal timestamp")
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Skills),
		Key:                 itemKey(skillKey, skillID),
		UpdateExpression:    aws.String("SET is_flagged = :true, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(skill_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": boolAV(true),
			":now":  now,
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return apperr.New(apperr.ErrNotFound, "skill %s not found", skillID)
		}
		return storage.Unavailable(err, "failed to flag skill")
	}
	return nil
}
