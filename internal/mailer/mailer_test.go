package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	send func(ctx context.Context, msg Message) error
}

func (s *stubSender) Send(ctx context.Context, msg Message) error {
	return s.send(ctx, msg)
}

func TestSMTP_Send(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	var gotAuth smtp.Auth

	s := NewSMTP(SMTPConfig{Host: "mail.example.com", Port: 587, Username: "bot", Password: "pw", From: "noreply@example.com"})
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotBody = addr, a, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), Message{Subject: "Reset code", Body: "Your code is 012345\nThanks", To: "user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"user@example.com"}, gotTo)

	body := string(gotBody)
	assert.Contains(t, body, "Subject: Reset code\r\n")
	assert.Contains(t, body, "To: user@example.com\r\n")
	assert.True(t, strings.HasSuffix(body, "Your code is 012345\r\nThanks"))
}

func TestSMTP_RejectsHeaderInjection(t *testing.T) {
	t.Parallel()

	s := NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "noreply@example.com"})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Error("send must not be attempted")
		return nil
	}
	err := s.Send(context.Background(), Message{Subject: "hi\r\nBcc: evil@example.com", To: "user@example.com"})
	assert.Error(t, err)
}

func TestLog_DoesNotLogBody(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, l.Send(context.Background(), Message{Subject: "Reset code", Body: "secret 123456", To: "user@example.com"}))
	assert.Contains(t, buf.String(), "user@example.com")
	assert.NotContains(t, buf.String(), "123456")
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("Survives Caller Cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		sender := &stubSender{send: func(ctx context.Context, _ Message) error {
			time.Sleep(10 * time.Millisecond)
			return ctx.Err()
		}}
		done := Dispatch(ctx, sender, Message{To: "a@b.co"})
		cancel()
		assert.NoError(t, <-done)
	})

	t.Run("Reports Failure", func(t *testing.T) {
		sender := &stubSender{send: func(context.Context, Message) error { return errors.New("relay down") }}
		assert.Error(t, <-Dispatch(context.Background(), sender, Message{To: "a@b.co"}))
	})

	t.Run("Recovers Panic", func(t *testing.T) {
		sender := &stubSender{send: func(context.Context, Message) error { panic("boom") }}
		assert.Error(t, <-Dispatch(context.Background(), sender, Message{To: "a@b.co"}))
	})

	t.Run("Nil Sender", func(t *testing.T) {
		assert.NoError(t, <-Dispatch(context.Background(), nil, Message{}))
	})
}
