// Package iot consumes gate-controller events relayed from AWS IoT Core through SQS.
package iot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// EntryEventHandler is implemented by service.EntryValidator.
type EntryEventHandler interface {
	HandleEvent(ctx context.Context, ev domain.EntryEvent) (domain.EntryResult, error)
}

type SQSConsumer struct {
	client     SQSClient
	queueURL   string
	handler    EntryEventHandler
	clock      clock.Clock
	logger     *zap.SugaredLogger
	retryDelay time.Duration
}

func NewSQSConsumer(client SQSClient, queueURL string, handler EntryEventHandler, logger *zap.SugaredLogger) *SQSConsumer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQSConsumer{
		client:     client,
		queueURL:   queueURL,
		handler:    handler,
		clock:      clock.New(),
		logger:     logger.Named("sqs"),
		retryDelay: 5 * time.Second,
	}
}

// Start long-polls the queue until ctx is cancelled.
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Infof("SQS Consumer: listening on %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("SQS Consumer: context cancelled, stopping.")
			return
		default:
		}

		result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Warnf("SQS Consumer: receive failed: %v", err)
			select {
			case <-c.clock.After(c.retryDelay):
			case <-ctx.Done():
			}
			continue
		}

		if len(result.Messages) > 0 {
			c.logger.Debugf("SQS Consumer: received %d message(s)", len(result.Messages))
		}
		for _, msg := range result.Messages {
			if c.Process(ctx, msg) {
				c.deleteMessage(ctx, msg.ReceiptHandle)
			}
		}
	}
}

// Process handles one message and reports whether it should be deleted. Messages
// that can never succeed are deleted; a failure before the entry was decided
// leaves the message for redelivery after the visibility timeout.
func (c *SQSConsumer) Process(ctx context.Context, msg types.Message) bool {
	id := aws.ToString(msg.MessageId)
	if msg.Body == nil || *msg.Body == "" {
		c.logger.Warnf("SQS Consumer: message %s has an empty body, deleting", id)
		return true
	}

	var gm domain.GateEntryMessage
	if err := json.Unmarshal([]byte(*msg.Body), &gm); err != nil {
		c.logger.Errorf("SQS Consumer: message %s is not valid JSON, deleting: %v", id, err)
		return true
	}
	gm.RawPayload = json.RawMessage(*msg.Body)

	if gm.MessageType != domain.GateEntryMessageType {
		c.logger.Debugf("SQS Consumer: ignoring message %s of type %q", id, gm.MessageType)
		return true
	}
	if gm.DetectedPlate == "" {
		c.logger.Warnf("SQS Consumer: gate entry %s from %s has no detected plate, deleting", gm.EventID, gm.DeviceID)
		return true
	}

	ev := gm.ToEntryEvent(c.clock.Now())
	if ev.EventID == "" {
		ev.EventID = id
	}
	result, err := c.handler.HandleEvent(ctx, ev)
	if err != nil {
		if result.Status == "" {
			c.logger.Errorf("SQS Consumer: entry %s not validated, will be redelivered: %v", ev.EventID, err)
			return false
		}
		c.logger.Errorf("SQS Consumer: entry %s validated as %s with error: %v", ev.EventID, result.Status, err)
	}
	return true
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		c.logger.Warn("SQS Consumer: empty receipt handle, cannot delete message.")
		return
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Warnf("SQS Consumer: delete failed: %v", err)
	}
}
