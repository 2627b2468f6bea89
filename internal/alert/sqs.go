package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type MessageSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier queues alerts for a downstream SMS/email worker.
type SQSNotifier struct {
	client   MessageSender
	queueURL string
	now      func() time.Time
}

func NewSQSNotifier(client MessageSender, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL, now: time.Now}
}

func (n *SQSNotifier) Notify(ctx context.Context, recipient, message string) error {
	body, err := encode(recipient, message, n.now())
	if err != nil {
		return err
	}
	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(MessageTypePlateMismatch)},
		},
	})
	if err != nil {
		return fmt.Errorf("SQSNotifier.Notify: %w", err)
	}
	return nil
}
