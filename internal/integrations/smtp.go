package integrations

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

// SMTPMailer delivers email through an SMTP relay
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewMailer returns an SMTP mailer when a relay is configured, otherwise a
// mailer that only logs
func NewMailer(cfg config.EmailConfig, log *logger.Logger) email.Mailer {
	if !cfg.Enabled() {
		return &LogMailer{log: log}
	}
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg email.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from, m.fromName)
	if msg.ToName != "" {
		gm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer records messages in the log instead of sending them
type LogMailer struct {
	log *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg email.Message) error {
	m.log.WithFields(map[string]interface{}{
		"to":      logger.MaskEmail(msg.To),
		"subject": msg.Subject,
	}).Info("SMTP not configured; email logged only")
	return nil
}
