// Package delivery defines the outbound email/SMS collaborator boundary.
// Implementations own retries and final delivery status; a nil error means
// "accepted for delivery", never "delivered".
package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// Payload is a rendered notification ready for hand-off.
type Payload struct {
	GrievanceID  string
	TrackingCode string
	EventType    domain.NotificationEventType
	Channel      domain.NotificationChannel
	Recipient    string
	Subject      string
	Body         string
	EmailRef     string
}

// Sender accepts rendered payloads for asynchronous delivery.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// LogSender is the development implementation: it records the hand-off and
// accepts everything.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds the logging sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the payload and reports acceptance.
func (s *LogSender) Send(_ context.Context, payload Payload) error {
	s.logger.Info("notification accepted for delivery",
		zap.String("grievance_id", payload.GrievanceID),
		zap.String("tracking_code", payload.TrackingCode),
		zap.String("event_type", string(payload.EventType)),
		zap.String("channel", string(payload.Channel)),
		zap.String("recipient", payload.Recipient),
	)
	return nil
}
