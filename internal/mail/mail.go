// Package mail sends the contact-form notification to the site owner.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by a mailer without SMTP credentials.
var ErrNotConfigured = errors.New("SMTP credentials not configured")

// Message is a contact form submission to be forwarded.
type Message struct {
	Name    string
	Email   string
	Company string
	Service string
	Budget  string
	Body    string
}

// Mailer delivers contact notifications.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	To   string
}

// SMTPMailer sends notifications through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	log  zerolog.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer. Host and port default to Gmail submission.
func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &SMTPMailer{cfg: cfg, log: log.With().Str("component", "mail").Logger(), send: smtp.SendMail}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.User == "" || m.cfg.Pass == "" || m.cfg.To == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{m.cfg.To}, Compose(m.cfg.User, m.cfg.To, msg))
	if err != nil {
		return fmt.Errorf("sending contact email: %w", err)
	}
	m.log.Info().Str("service", msg.Service).Msg("Contact email sent")
	return nil
}

// Compose renders the notification email.
func Compose(from, to string, msg Message) []byte {
	var body strings.Builder
	body.WriteString("New contact form submission from your portfolio:\r\n\r\n")
	fmt.Fprintf(&body, "Name: %s\r\n", msg.Name)
	fmt.Fprintf(&body, "Email: %s\r\n", msg.Email)
	if msg.Company != "" {
		fmt.Fprintf(&body, "Company: %s\r\n", msg.Company)
	}
	if msg.Service != "" {
		fmt.Fprintf(&body, "Service: %s\r\n", msg.Service)
	}
	if msg.Budget != "" {
		fmt.Fprintf(&body, "Budget: %s\r\n", msg.Budget)
	}
	fmt.Fprintf(&body, "Message:\r\n%s\r\n\r\n---\r\nSent from your portfolio contact form\r\n", msg.Body)

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Portfolio Contact: " + headerSafe(msg.Name) + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("Reply-To: " + headerSafe(msg.Email) + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body.String())
	return []byte(b.String())
}

// headerSafe strips line breaks so user input cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// NopMailer discards notifications. It is used when SMTP is not configured.
type NopMailer struct {
	Log zerolog.Logger
}

// Send implements Mailer.
func (n NopMailer) Send(_ context.Context, msg Message) error {
	n.Log.Debug().Msg("SMTP not configured, skipping contact email")
	return nil
}
