package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/chiecouture/storefront-backend/pkg/config"
	"github.com/chiecouture/storefront-backend/pkg/logger"
)

// Message is a plain-text outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridSender delivers mail through the Sendgrid v3 API.
type SendgridSender struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

// NewSendgridSender builds a sender from config. The API key and from address
// are both required.
func NewSendgridSender(cfg config.EmailConfig) (*SendgridSender, error) {
	if cfg.SendgridAPIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("from address is required")
	}
	return &SendgridSender{
		client:   sendgrid.NewSendClient(cfg.SendgridAPIKey),
		fromName: cfg.FromName,
		fromAddr: cfg.FromAddress,
	}, nil
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return fmt.Errorf("recipient email is required")
	}
	from := sgmail.NewEmail(s.fromName, s.fromAddr)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmailPlainText(from, msg.Subject, to, msg.Body)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender writes outbound mail to the log instead of delivering it. Used in
// dev when no Sendgrid key is configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"to":      msg.ToEmail,
			"subject": msg.Subject,
		})
		s.logg.Info(ctx, "email delivery skipped (log sender)")
	}
	return nil
}

// FromConfig selects the Sendgrid sender when a key is present and the log
// sender otherwise.
func FromConfig(cfg config.EmailConfig, logg *logger.Logger) (Sender, error) {
	if cfg.SendgridAPIKey == "" {
		return NewLogSender(logg), nil
	}
	return NewSendgridSender(cfg)
}
