package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetUser(t *testing.T) {
	user := &models.User{UserId: "user1", Name: "Ada", ProfileVisibility: models.VisibilityPublic}
	av, err := attributevalue.MarshalMap(user)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: av}, nil).Once()

		result, err := store.GetUser(context.Background(), "user1")

		assert.NoError(t, err)
		assert.Equal(t, "user1", result.UserId)
		assert.Equal(t, "Ada", result.Name)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

		result, err := store.GetUser(context.Background(), "user1")

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb error")).Once()

		_, err := store.GetUser(context.Background(), "user1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get user from DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("PutItem", mock.Anything, mock.AnythingOfType("*dynamodb.PutItemInput")).Return(&dynamodb.PutItemOutput{}, nil).Once()

		user, err := store.CreateUser(context.Background(), &models.User{UserId: "user1"})

		assert.NoError(t, err)
		assert.Equal(t, "user1", user.UserId)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Exists", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		_, err := store.CreateUser(context.Background(), &models.User{UserId: "user1"})

		assert.True(t, errors.Is(err, apperr.ErrConflict))
		mockClient.AssertExpectations(t)
	})
}

func TestUpdateUser(t *testing.T) {
	name := "Grace"
	updated, err := attributevalue.MarshalMap(&models.User{UserId: "user1", Name: name})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return in.ExpressionAttributeNames["#name"] == "name" && in.ReturnValues == types.ReturnValueAllNew
		})).Return(&dynamodb.UpdateItemOutput{Attributes: updated}, nil).Once()

		user, err := store.UpdateUser(context.Background(), "user1", models.ProfileUpdate{Name: &name})

		assert.NoError(t, err)
		assert.Equal(t, name, user.Name)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		_, err := store.UpdateUser(context.Background(), "user1", models.ProfileUpdate{Name: &name})

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		mockClient.AssertExpectations(t)
	})
}

func TestListPublicUsers(t *testing.T) {
	u1, _ := attributevalue.MarshalMap(&models.User{UserId: "user1", ProfileVisibility: models.VisibilityPublic})
	u2, _ := attributevalue.MarshalMap(&models.User{UserId: "user2", ProfileVisibility: models.VisibilityPublic})

	t.Run("Follows Pages", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
			Items:            []map[string]types.AttributeValue{u1},
			LastEvaluatedKey: map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: "user1"}},
		}, nil).Once()
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
			Items: []map[string]types.AttributeValue{u2},
		}, nil).Once()

		users, err := store.ListPublicUsers(context.Background(), 50)

		assert.NoError(t, err)
		assert.Len(t, users, 2)
		mockClient.AssertExpectations(t)
	})

	t.Run("Stops At Limit", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
			Items:            []map[string]types.AttributeValue{u1, u2},
			LastEvaluatedKey: map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: "user2"}},
		}, nil).Once()

		users, err := store.ListPublicUsers(context.Background(), 1)

		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, "user1", users[0].UserId)
		mockClient.AssertExpectations(t)
	})

	t.Run("Expired Ban Is Listed", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		past := time.Now().Add(-time.Hour)
		future := time.Now().Add(time.Hour)
		expired, _ := attributevalue.MarshalMap(&models.User{UserId: "expired", ProfileVisibility: models.VisibilityPublic, IsBanned: true, BannedUntil: &past})
		active, _ := attributevalue.MarshalMap(&models.User{UserId: "active", ProfileVisibility: models.VisibilityPublic, IsBanned: true, BannedUntil: &future})
		permanent, _ := attributevalue.MarshalMap(&models.User{UserId: "permanent", ProfileVisibility: models.VisibilityPublic, IsBanned: true})

		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
			Items: []map[string]types.AttributeValue{expired, active, permanent, u1},
		}, nil).Once()

		users, err := store.ListPublicUsers(context.Background(), 50)

		assert.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "expired", users[0].UserId)
		assert.Equal(t, "user1", users[1].UserId)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb error")).Once()

		_, err := store.ListPublicUsers(context.Background(), 10)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to scan users")
		mockClient.AssertExpectations(t)
	})
}

func TestSetRating(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(&dynamodb.UpdateItemOutput{}, nil).Once()

		err := store.SetRating(context.Background(), "user1", 4.5, 2, at)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Superseded", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		av, _ := attributevalue.MarshalMap(&models.User{UserId: "user1"})
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: av}, nil).Once()

		err := store.SetRating(context.Background(), "user1", 4.5, 2, at)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("User Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

		err := store.SetRating(context.Background(), "user1", 4.5, 2, at)

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		mockClient.AssertExpectations(t)
	})
}
