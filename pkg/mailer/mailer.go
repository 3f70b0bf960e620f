package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"unplan-backend/pkg/config"

	"go.uber.org/fx"
)

var Module = fx.Module("mailer",
	fx.Provide(NewSMTPMailer),
)

// Mailer delivers a single plain-text message. Delivery failures are the
// caller's problem; the worker retries through asynq, API-side callers treat
// dispatch as best effort.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(cfg *config.Config) Mailer {
	var auth smtp.Auth
	if cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%s", cfg.SMTP.Host, cfg.SMTP.Port),
		from: cfg.SMTP.From,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", m.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
