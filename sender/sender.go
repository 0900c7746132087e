package sender

import (
	"context"
	"errors"
	"time"
)

// ErrProviderNotConfigured is returned by dispatch paths when no provider exists
// for a channel.
var ErrProviderNotConfigured = errors.New("notification provider not configured")

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (SendResult, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, msg string) (SendResult, error)
}
