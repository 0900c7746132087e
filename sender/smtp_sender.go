package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// ErrInvalidHeader is returned when an address or subject would break the
// message headers.
var ErrInvalidHeader = errors.New("header value contains CR or LF")

const defaultSMTPTimeout = 30 * time.Second

// SMTPSettings configures the SMTP email provider.
type SMTPSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	settings SMTPSettings
	dialer   net.Dialer
}

// NewSMTPSender returns nil, nil when no host is configured so callers can run
// with the provider absent and rely on the outbox.
func NewSMTPSender(settings SMTPSettings) (*SMTPSender, error) {
	if settings.Host == "" {
		return nil, nil
	}
	if settings.Port == "" {
		return nil, fmt.Errorf("SMTP_PORT not set")
	}
	if settings.From == "" {
		settings.From = settings.Username
	}
	if settings.From == "" {
		return nil, fmt.Errorf("SMTP_FROM or SMTP_USER must be set")
	}
	if err := checkHeaderValue(settings.From); err != nil {
		return nil, fmt.Errorf("SMTP_FROM: %w", err)
	}
	return &SMTPSender{settings: settings, dialer: net.Dialer{Timeout: 10 * time.Second}}, nil
}

func checkHeaderValue(v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return ErrInvalidHeader
	}
	return nil
}

// SendEmail delivers one HTML message over a single connection. Every read and
// write on it is bounded by ctx.
func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	if err := checkHeaderValue(to); err != nil {
		return SendResult{}, fmt.Errorf("smtp recipient: %w", err)
	}
	if err := checkHeaderValue(subject); err != nil {
		return SendResult{}, fmt.Errorf("smtp subject: %w", err)
	}

	addr := net.JoinHostPort(s.settings.Host, s.settings.Port)
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return SendResult{}, fmt.Errorf("smtp dial failed: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultSMTPTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return SendResult{}, fmt.Errorf("smtp set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, s.settings.Host)
	if err != nil {
		_ = conn.Close()
		return SendResult{}, fmt.Errorf("smtp greeting failed: %w", err)
	}
	defer client.Close()

	if err := s.deliver(client, to, subject, body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return SendResult{}, fmt.Errorf("smtp send failed: %w", errors.Join(ctxErr, err))
		}
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}

	now := time.Now()
	return SendResult{
		MessageID: fmt.Sprintf("smtp-%d", now.UnixNano()),
		SentAt:    now,
	}, nil
}

func (s *SMTPSender) deliver(client *smtp.Client, to, subject, body string) error {
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.settings.Host}); err != nil {
			return err
		}
	}
	if s.settings.Username != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		auth := smtp.PlainAuth("", s.settings.Username, s.settings.Password, s.settings.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.settings.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	msg := "From: " + s.settings.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
