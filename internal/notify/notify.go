// Package notify is the outbound notification boundary. Delivery is
// fire-and-forget: a failed notification never rolls back the redemption
// that triggered it.
package notify

import (
	"context"

	"reward-system/pkg/logger"
)

// Notification is the payload handed to the delivery backend.
type Notification struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// Sender delivers a notification to an account.
type Sender interface {
	Notify(ctx context.Context, accountID string, n Notification) error
}

// LogSender records notifications in the log. Stands in for a real push or
// email backend in development and tests.
type LogSender struct {
	logger *logger.Logger
}

// NewLogSender creates a log-backed notification sender
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (s *LogSender) Notify(_ context.Context, accountID string, n Notification) error {
	s.logger.Infow("notification",
		"account_id", accountID,
		"type", n.Type,
		"title", n.Title,
		"message", n.Message)
	return nil
}
