package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// Message is a transactional email.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string

	// IdempotencyKey lets the provider drop duplicates when a send is retried,
	// for example after the event consumer redelivers a message.
	IdempotencyKey string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NoopSender logs instead of sending. Used when no provider key is configured.
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(_ context.Context, msg *Message) error {
	s.logger.Info("Email sending disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

// emailClient is the subset of the resend API the sender uses.
type emailClient interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

// ResendSender sends through the Resend REST API.
type ResendSender struct {
	from       string
	emails     emailClient
	logger     *slog.Logger
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewResendSender(apiKey, from string, logger *slog.Logger) (*ResendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	client := resend.NewClient(apiKey)
	return newResendSender(client.Emails, from, logger), nil
}

func newResendSender(emails emailClient, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{
		from:       from,
		emails:     emails,
		logger:     logger,
		maxRetries: 3,
		sleep:      sleepContext,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 || strings.TrimSpace(msg.To[0]) == "" {
		return fmt.Errorf("email recipient is required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}

	options := &resend.SendEmailOptions{}
	if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
		options.IdempotencyKey = key
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		sent, err := s.emails.SendWithOptions(ctx, params, options)
		if err == nil {
			s.logger.Info("Email sent", "to", msg.To, "subject", msg.Subject, "email_id", sent.Id)
			return nil
		}
		lastErr = err

		wait, retryable := retryDelay(err, attempt)
		if !retryable {
			return fmt.Errorf("resend send failed: %w", err)
		}
		s.logger.Warn("Email send failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

// retryDelay decides whether err is worth another attempt and how long to
// wait first. Rate limits honour Retry-After, capped at 30s.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			return time.Duration(min(seconds, 30)) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
