package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/skill-swap/pkg/config"
	"github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/scheduler"
	dydbstore "github.com/chris/skill-swap/pkg/storage/dynamodb"
	"github.com/chris/skill-swap/pkg/swaps"
	"github.com/joho/godotenv"
)

var service *swaps.Service
var sqsScheduler scheduler.Scheduler

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("unable to parse config, %v", err)
	}
	cfg.StoreBackend = config.BackendDynamoDB
	if err := cfg.ValidateStore(); err != nil {
		log.Fatal(err)
	}
	if cfg.SQSQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg), cfg.Tables())
	sqsScheduler = scheduler.NewSQSScheduler(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL)
	service = swaps.NewService(store, sqsScheduler, events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange), nil)
}

// HandleRequest is triggered by an EventBridge Schedule. It queues every
// overdue pending request for immediate expiry.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting expiry sweep for overdue swap requests...")

	overdue, err := service.ListOverdue(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list overdue swap requests: %v", err)
		return err
	}

	if len(overdue) == 0 {
		log.Println("No overdue swap requests found.")
		return nil
	}

	log.Printf("Found %d overdue swap requests. Enqueuing them...", len(overdue))

	now := time.Now()
	for _, req := range overdue {
		if err := sqsScheduler.ScheduleExpiry(ctx, req.RequestId, now); err != nil {
			log.Printf("ERROR: failed to enqueue swap request %s: %v", req.RequestId, err)
			continue
		}
		log.Printf("Enqueued swap request %s", req.RequestId)
	}

	log.Println("Expiry sweep finished.")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
