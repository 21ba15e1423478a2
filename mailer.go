package newsletter

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/goliatone/go-errors"
)

// SMTPMailer delivers mail through a tenant's configured relay.
type SMTPMailer struct {
	settings *EmailSetting
	logger   Logger
	// send is swappable for tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(settings *EmailSetting) *SMTPMailer {
	return &SMTPMailer{
		settings: settings,
		logger:   defLogger{},
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) WithLogger(l Logger) *SMTPMailer {
	if l != nil {
		m.logger = l
	}
	return m
}

var _ Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.settings == nil {
		return errors.New("mail settings not configured", errors.CategoryInternal)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	from := m.settings.FromAddress
	fromHeader := from
	if m.settings.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", m.settings.FromName, from)
	}

	var auth smtp.Auth
	if m.settings.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.settings.SMTPUser, m.settings.SMTPPassword, m.settings.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", m.settings.SMTPHost, m.settings.SMTPPort)

	msg := strings.Join([]string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		html,
	}, "\r\n")

	if err := m.send(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "smtp delivery failed").
			WithMetadata(map[string]any{"host": m.settings.SMTPHost})
	}

	return nil
}
