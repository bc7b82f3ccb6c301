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

const maxCounterAttempts = 3

// counterTarget resolves the table and key attribute an entity is stored under.
func (s *Store) counterTarget(e models.Entity) (string, string, error) {
	switch e {
	case models.EntityUser:
		return s.Tables.Users, userKey, nil
	case models.EntitySkill:
		return s.Tables.Skills, skillKey, nil
	case models.EntityReview:
		return s.Tables.Reviews, reviewKey, nil
	}
	return "", "", apperr.New(apperr.ErrInvalidArgument, "unknown counter entity %q", e)
}

// counterItem builds the transactional update that adds delta to c. Increments
// require the record to exist; decrements are floor items that only apply when
// the counter can absorb them.
func (s *Store) counterItem(c models.Counter, delta int64) (writeItem, error) {
	table, keyName, err := s.counterTarget(c.Entity)
	if err != nil {
		return writeItem{}, err
	}

	update := &types.Update{
		TableName:                aws.String(table),
		Key:                      itemKey(keyName, c.ID),
		UpdateExpression:         aws.String("ADD #field :delta"),
		ExpressionAttributeNames: map[string]string{"#field": c.Field, "#key": keyName},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": numAV(delta),
		},
	}

	if delta >= 0 {
		update.ConditionExpression = aws.String("attribute_exists(#key)")
		return writeItem{
			TransactWriteItem: types.TransactWriteItem{Update: update},
			conditionErr:      apperr.New(apperr.ErrNotFound, "%s %s not found", c.Entity, c.ID),
		}, nil
	}

	update.ConditionExpression = aws.String("attribute_exists(#key) AND #field >= :floor")
	update.ExpressionAttributeValues[":floor"] = numAV(-delta)
	return writeItem{
		TransactWriteItem: types.TransactWriteItem{Update: update},
		floor:             true,
	}, nil
}

// IncrementCounter atomically adds delta to a counter field and returns the new
// value. A decrement that would drop below zero leaves the counter at zero.
func (s *Store) IncrementCounter(ctx context.Context, c models.Counter, delta int64) (int64, error) {
	table, keyName, err := s.counterTarget(c.Entity)
	if err != nil {
		return 0, err
	}

	names := map[string]string{"#field": c.Field, "#key": keyName}
	notFound := apperr.New(apperr.ErrNotFound, "%s %s not found", c.Entity, c.ID)

	for attempt := 0; attempt < maxCounterAttempts; attempt++ {
		input := &dynamodb.UpdateItemInput{
			TableName:                aws.String(table),
			Key:                      itemKey(keyName, c.ID),
			UpdateExpression:         aws.String("ADD #field :delta"),
			ConditionExpression:      aws.String("attribute_exists(#key)"),
			ExpressionAttributeNames: names,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":delta": numAV(delta),
			},
			ReturnValues: types.ReturnValueUpdatedNew,
		}
		if delta < 0 {
			input.ConditionExpression = aws.String("attribute_exists(#key) AND #field >= :floor")
			input.ExpressionAttributeValues[":floor"] = numAV(-delta)
		}

		result, err := s.Client.UpdateItem(ctx, input)
		if err == nil {
			return counterValue(result.Attributes, c.Field)
		}
		if !isConditionFailed(err) {
			return 0, storage.Unavailable(err, "failed to update counter %s", c.Field)
		}
		if delta >= 0 {
			return 0, notFound
		}

		// The decrement would go negative or the record is missing.
		var current map[string]any
		found, err := s.getItem(ctx, table, itemKey(keyName, c.ID), string(c.Entity), &current)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, notFound
		}

		_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                aws.String(table),
			Key:                      itemKey(keyName, c.ID),
			UpdateExpression:         aws.String("SET #field = :zero"),
			ConditionExpression:      aws.String("attribute_exists(#key) AND (attribute_not_exists(#field) OR #field < :floor)"),
			ExpressionAttributeNames: names,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":zero":  numAV(0),
				":floor": numAV(-delta),
			},
		})
		if err == nil {
			return 0, nil
		}
		if !isConditionFailed(err) {
			return 0, storage.Unavailable(err, "failed to reset counter %s", c.Field)
		}
		// The counter grew in between; try the decrement again.
	}

	return 0, apperr.New(apperr.ErrUnavailable, "counter %s on %s %s kept changing", c.Field, c.Entity, c.ID)
}

func counterValue(attrs map[string]types.AttributeValue, field string) (int64, error) {
	av, ok := attrs[field]
	if !ok {
		return 0, nil
	}
	var v int64
	if err := attributevalue.Unmarshal(av, &v); err != nil {
		return 0, storage.Unavailable(err, "failed to unmarshal counter %s", field)
	}
	return v, nil
}
