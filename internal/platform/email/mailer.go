package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/hassonapp/chatter/config"
)

// Message is the payload carried on the email queue.
type Message struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

// Mailer delivers rendered messages over SMTP. The queue already retries
// handler failures, so the dial retries here only smooth over transient
// SMTP hiccups within one delivery attempt.
type Mailer struct {
	logger *slog.Logger
	cfg    config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig, logger *slog.Logger) *Mailer {
	return &Mailer{logger: logger, cfg: cfg}
}

const dialAttempts = 3

// Send renders the named template and delivers it.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	body, err := Render(msg.Template, msg.Data)
	if err != nil {
		return fmt.Errorf("render template %q: %w", msg.Template, err)
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From))
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	var lastErr error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if lastErr = dialer.DialAndSend(mail); lastErr == nil {
			m.logger.InfoContext(ctx, "Email sent",
				slog.String("to", msg.To),
				slog.String("template", msg.Template),
			)
			return nil
		}
		delay := time.Duration(1<<attempt) * time.Second
		m.logger.WarnContext(ctx, "Email delivery attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("to", msg.To),
			slog.Duration("retry_in", delay),
			slog.Any("error", lastErr),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("email send cancelled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("send email to %s: %w", msg.To, lastErr)
}
