package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/skill-swap/pkg/scheduler/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestScheduleExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Caps Delay", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		s := &SQSScheduler{Client: mockClient, QueueURL: "queue", Now: func() time.Time { return now }}

		mockClient.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			var msg ExpiryMessage
			if err := json.Unmarshal([]byte(*in.MessageBody), &msg); err != nil {
				return false
			}
			return in.DelaySeconds == 900 && msg.RequestID == "req1"
		})).Return(&sqs.SendMessageOutput{}, nil).Once()

		err := s.ScheduleExpiry(context.Background(), "req1", now.Add(7*24*time.Hour))

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Short Delay", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		s := &SQSScheduler{Client: mockClient, QueueURL: "queue", Now: func() time.Time { return now }}

		mockClient.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			return in.DelaySeconds == 30
		})).Return(&sqs.SendMessageOutput{}, nil).Once()

		assert.NoError(t, s.ScheduleExpiry(context.Background(), "req1", now.Add(30*time.Second)))
		mockClient.AssertExpectations(t)
	})

	t.Run("Send Fails", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		s := &SQSScheduler{Client: mockClient, QueueURL: "queue", Now: func() time.Time { return now }}

		mockClient.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("sqs down")).Once()

		err := s.ScheduleExpiry(context.Background(), "req1", now)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message to SQS")
		mockClient.AssertExpectations(t)
	})
}

func TestDelaySeconds(t *testing.T) {
	assert.Equal(t, int32(0), delaySeconds(-time.Hour))
	assert.Equal(t, int32(0), delaySeconds(0))
	assert.Equal(t, int32(90), delaySeconds(90*time.Second))
	assert.Equal(t, int32(900), delaySeconds(time.Hour))
}
