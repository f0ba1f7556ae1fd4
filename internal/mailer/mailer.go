// Package mailer delivers account mail such as password reset codes.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"positiveonly/internal/observability"
)

// Message is one outgoing mail.
type Message struct {
	Subject string
	Body    string
	To      string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP sends through a relay with PLAIN auth when a username is set.
type SMTP struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP returns an SMTP sender.
func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("mail header contains a line break")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.cfg.From, []string{msg.To}, s.render(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTP) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// Log writes mail metadata to the logger instead of sending it. Bodies are
// not logged because they carry reset codes.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log sender; nil uses slog.Default.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	l.logger.InfoContext(ctx, "mail suppressed",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_bytes", len(msg.Body)))
	return nil
}

// Dispatch sends msg in the background. The send outlives the caller's
// cancellation; failures are logged and counted only.
func Dispatch(ctx context.Context, sender Sender, msg Message) <-chan error {
	done := make(chan error, 1)
	if sender == nil {
		done <- nil
		close(done)
		return done
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("mail sender panicked: %v", r)
				observability.MailFailures.Inc()
				observability.LogAsyncOperationError(ctx, "mail.send", err, map[string]any{"subject": msg.Subject})
				done <- err
			}
		}()

		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		err := sender.Send(sendCtx, msg)
		if err != nil {
			observability.MailFailures.Inc()
			observability.LogAsyncOperationError(ctx, "mail.send", err, map[string]any{"subject": msg.Subject})
		}
		done <- err
	}()
	return done
}
