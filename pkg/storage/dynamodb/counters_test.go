package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestIncrementCounter(t *testing.T) {
	flags := models.Counter{Entity: models.EntitySkill, ID: "guitar", Field: models.FieldFlagCount}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return *in.TableName == "skills" && in.ExpressionAttributeNames["#field"] == models.FieldFlagCount
		})).Return(&dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{
				models.FieldFlagCount: &types.AttributeValueMemberN{Value: "3"},
			},
		}, nil).Once()

		value, err := store.IncrementCounter(context.Background(), flags, 1)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), value)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		_, err := store.IncrementCounter(context.Background(), flags, 1)

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		mockClient.AssertExpectations(t)
	})

	t.Run("Decrement Floors At Zero", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
			Item: map[string]types.AttributeValue{
				"skill_id":            &types.AttributeValueMemberS{Value: "guitar"},
				models.FieldFlagCount: &types.AttributeValueMemberN{Value: "0"},
			},
		}, nil).Once()
		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return *in.UpdateExpression == "SET #field = :zero"
		})).Return(&dynamodb.UpdateItemOutput{}, nil).Once()

		value, err := store.IncrementCounter(context.Background(), flags, -1)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), value)
		mockClient.AssertExpectations(t)
	})

	t.Run("Decrement Missing Record", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

		_, err := store.IncrementCounter(context.Background(), flags, -1)

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb error")).Once()

		_, err := store.IncrementCounter(context.Background(), flags, 1)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update counter flag_count")
		mockClient.AssertExpectations(t)
	})

	t.Run("Unknown Entity", func(t *testing.T) {
		store := &Store{Client: new(mocks.DynamoDBAPI), Tables: testTables}

		_, err := store.IncrementCounter(context.Background(), models.Counter{Entity: "order", ID: "x", Field: "total"}, 1)

		assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
	})
}
