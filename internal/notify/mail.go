package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/diewo77/go-retail/internal/config"
	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is an HTML email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Mailer interface {
	Mail(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send func(e *email.Email, addr string, auth smtp.Auth) error
	log  zerolog.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, log zerolog.Logger) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("smtp host and sender address are required")
	}
	return &SMTPMailer{
		cfg:  cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
		log:  log,
	}, nil
}

func (m *SMTPMailer) build(msg Message) (*email.Email, error) {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	for _, a := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Name, a.ContentType); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}
	return e, nil
}

func (m *SMTPMailer) Mail(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, err := m.build(msg)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(e, m.cfg.Addr(), auth); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("attachments", len(msg.Attachments)).Msg("email sent")
	return nil
}

// LogMailer logs messages instead of sending them.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) Mail(ctx context.Context, msg Message) error {
	m.Log.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("attachments", len(msg.Attachments)).
		Msg("smtp not configured, email logged")
	return nil
}
