package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/rentledger/backend/internal/domain/notification"
	"github.com/rentledger/backend/internal/infrastructure/config"
)

// SMTPEmailSender delivers notification emails through a plain SMTP relay.
type SMTPEmailSender struct {
	addr   string
	host   string
	from   string
	auth   smtp.Auth
	logger *zap.Logger
}

// NewSMTPEmailSender creates an email sender from SMTP configuration
func NewSMTPEmailSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPEmailSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPEmailSender{
		addr:   cfg.Addr(),
		host:   cfg.Host,
		from:   cfg.From,
		auth:   auth,
		logger: logger,
	}
}

// Send delivers a single plain-text email
func (s *SMTPEmailSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		s.logger.Warn("Failed to send notification email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}

	s.logger.Debug("Notification email sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// NoopEmailSender discards emails. Used when SMTP is disabled.
type NoopEmailSender struct {
	logger *zap.Logger
}

// NewNoopEmailSender creates a sender that only logs
func NewNoopEmailSender(logger *zap.Logger) *NoopEmailSender {
	return &NoopEmailSender{logger: logger}
}

// Send logs the email instead of delivering it
func (s *NoopEmailSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Debug("Email delivery disabled, dropping message",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

var (
	_ notification.EmailSender = (*SMTPEmailSender)(nil)
	_ notification.EmailSender = (*NoopEmailSender)(nil)
)
