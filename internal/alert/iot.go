package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
)

// MQTTPublisher is the subset of the IoT data plane client used for alerts.
type MQTTPublisher interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// IoTNotifier publishes alerts to "<prefix>/<recipient>" through AWS IoT Core,
// where the operator's gate display or SMS bridge is subscribed.
type IoTNotifier struct {
	client MQTTPublisher
	prefix string
	now    func() time.Time
}

func NewIoTNotifier(client MQTTPublisher, topicPrefix string) *IoTNotifier {
	return &IoTNotifier{client: client, prefix: strings.TrimSuffix(topicPrefix, "/"), now: time.Now}
}

func (n *IoTNotifier) Topic(recipient string) string {
	return n.prefix + "/" + recipient
}

func (n *IoTNotifier) Notify(ctx context.Context, recipient, message string) error {
	payload, err := encode(recipient, message, n.now())
	if err != nil {
		return err
	}
	_, err = n.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(n.Topic(recipient)),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("IoTNotifier.Notify: publish to %s: %w", n.Topic(recipient), err)
	}
	return nil
}
