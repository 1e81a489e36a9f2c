// Package sms defines the outbound text-message port. Real delivery belongs
// to a gateway outside this service; the wizard only needs "send this code to
// this phone".
package sms

//go:generate mockgen -source=sender.go -destination=mocks/mocks.go -package=mocks Sender

import (
	"context"
	"log/slog"
)

// Sender delivers a one-time code to a phone number.
type Sender interface {
	Send(ctx context.Context, e164Phone, message string) error
}

// LogSender writes messages to the log instead of a gateway. Dev-only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, e164Phone, message string) error {
	s.logger.InfoContext(ctx, "sms message",
		"phone", e164Phone,
		"message", message,
	)
	return nil
}
