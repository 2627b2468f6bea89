// Package alert delivers out-of-band notifications about plate mismatches.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Notifier sends one message to one recipient.
type Notifier interface {
	Notify(ctx context.Context, recipient, message string) error
}

// Message is the JSON payload published on MQTT and SQS.
type Message struct {
	Type      string    `json:"type"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

const MessageTypePlateMismatch = "plate_mismatch"

func encode(recipient, message string, now time.Time) ([]byte, error) {
	b, err := json.Marshal(Message{
		Type:      MessageTypePlateMismatch,
		Recipient: recipient,
		Message:   message,
		SentAt:    now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("alert: encoding message: %w", err)
	}
	return b, nil
}

// LogNotifier only writes the alert to the log. It is the fallback when no
// transport is configured.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, recipient, message string) error {
	n.logger.Warnw("ALERT", "recipient", recipient, "message", message)
	return nil
}

// Multi fans one alert out to every notifier. All of them are attempted; the
// returned error combines every failure.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, recipient, message string) error {
	var errs error
	for _, n := range m {
		errs = multierr.Append(errs, n.Notify(ctx, recipient, message))
	}
	return errs
}
