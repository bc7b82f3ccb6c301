package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/config"
	swapevents "github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/scheduler"
	dydbstore "github.com/chris/skill-swap/pkg/storage/dynamodb"
	"github.com/chris/skill-swap/pkg/swaps"
	"github.com/joho/godotenv"
)

// expirer is the part of the swap service the handler drives.
type expirer interface {
	Expire(ctx context.Context, requestID string) error
}

// expiryHandler processes batches of SQS expiry messages.
type expiryHandler struct {
	service   expirer
	scheduler scheduler.Scheduler
	now       func() time.Time
}

// HandleRequest processes SQS expiry messages. A message that arrives before
// its request is due is put back on the queue. Only the records that failed
// are reported back for redelivery.
func (h *expiryHandler) HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		if err := h.process(ctx, message); err != nil {
			log.Printf("ERROR: message %s failed: %v", message.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		}
	}
	return resp, nil
}

func (h *expiryHandler) process(ctx context.Context, message events.SQSMessage) error {
	var msg scheduler.ExpiryMessage
	if err := json.Unmarshal([]byte(message.Body), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal expiry message: %w", err)
	}

	if h.now().Before(msg.ExpiresAt) {
		if err := h.scheduler.ScheduleExpiry(ctx, msg.RequestID, msg.ExpiresAt); err != nil {
			return fmt.Errorf("failed to requeue swap request %s: %w", msg.RequestID, err)
		}
		log.Printf("Swap request %s not due until %s, requeued", msg.RequestID, msg.ExpiresAt.Format(time.RFC3339))
		return nil
	}

	err := h.service.Expire(ctx, msg.RequestID)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Printf("Swap request %s no longer exists, dropping message", msg.RequestID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to expire swap request %s: %w", msg.RequestID, err)
	}

	log.Printf("Processed expiry for swap request %s", msg.RequestID)
	return nil
}

func main() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("unable to parse config, %v", err)
	}
	cfg.StoreBackend = config.BackendDynamoDB
	if err := cfg.ValidateStore(); err != nil {
		log.Fatal(err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg), cfg.Tables())
	var sqsScheduler scheduler.Scheduler = scheduler.NoOpScheduler{}
	if cfg.SQSQueueURL != "" {
		sqsScheduler = scheduler.NewSQSScheduler(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL)
	}

	h := &expiryHandler{
		service:   swaps.NewService(store, nil, swapevents.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange), nil),
		scheduler: sqsScheduler,
		now:       time.Now,
	}
	lambda.Start(h.HandleRequest)
}
