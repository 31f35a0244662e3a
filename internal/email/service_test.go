package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageHeaders(t *testing.T) {
	var buf bytes.Buffer
	_, err := newMessage("noreply@docbook.test", "pat@example.com", "Appointment confirmed", "See you soon").WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "From: noreply@docbook.test")
	assert.Contains(t, raw, "To: pat@example.com")
	assert.Contains(t, raw, "Subject: Appointment confirmed")
	assert.Contains(t, raw, "See you soon")
}

func TestSendHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSMTPSender(Config{Host: "127.0.0.1", Port: 1})
	assert.ErrorIs(t, s.Send(ctx, "a@example.com", "s", "b"), context.Canceled)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), "a@example.com", "s", "b"))
}
