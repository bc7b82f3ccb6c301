package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testTables = Tables{
	Users:        "users",
	Skills:       "skills",
	UserSkills:   "user_skills",
	SwapRequests: "swap_requests",
	Transactions: "transactions",
	Reviews:      "reviews",
	Messages:     "system_messages",
}

func cancelled(codes ...string) error {
	reasons := make([]types.CancellationReason, 0, len(codes))
	for _, c := range codes {
		reasons = append(reasons, types.CancellationReason{Code: aws.String(c)})
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func withItems(n int) interface{} {
	return mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == n
	})
}

func TestTransactWrite(t *testing.T) {
	t.Run("Drops Floored Decrement", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("TransactWriteItems", mock.Anything, withItems(2)).Return(nil, cancelled("None", "ConditionalCheckFailed")).Once()
		mockClient.On("TransactWriteItems", mock.Anything, withItems(1)).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		err := store.DetachUserSkill(context.Background(), "user1", "guitar", models.Offered)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Required Condition Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("ConditionalCheckFailed", "None")).Once()

		err := store.DetachUserSkill(context.Background(), "user1", "guitar", models.Offered)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		mockClient.AssertExpectations(t)
	})

	t.Run("Retries Transaction Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("TransactWriteItems", mock.Anything, withItems(2)).Return(nil, cancelled("TransactionConflict", "None")).Once()
		mockClient.On("TransactWriteItems", mock.Anything, withItems(2)).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		err := store.AttachUserSkill(context.Background(), &models.UserSkill{
			UserSkillId: models.UserSkillID("user1", "guitar", models.Offered),
			UserId:      "user1",
			SkillId:     "guitar",
			Type:        models.Offered,
			IsActive:    true,
		})

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Gives Up After Repeated Conflicts", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("TransactionConflict", "None")).Times(maxTransactAttempts)

		err := store.AttachUserSkill(context.Background(), &models.UserSkill{UserId: "user1", SkillId: "guitar", Type: models.Wanted})

		assert.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrUnavailable))
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb error")).Once()

		err := store.AttachUserSkill(context.Background(), &models.UserSkill{UserId: "user1", SkillId: "guitar", Type: models.Offered})

		assert.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrUnavailable))
		assert.Contains(t, err.Error(), "failed to execute attach user skill transaction")
		mockClient.AssertExpectations(t)
	})
}
