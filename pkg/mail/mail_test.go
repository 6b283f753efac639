package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retromusic/storefront/config"
)

type recorder struct {
	from string
	to   []string
	raw  string
	err  error
}

func (r *recorder) Deliver(_ context.Context, from string, to []string, raw []byte) error {
	r.from, r.to, r.raw = from, to, string(raw)
	return r.err
}

func newMailer(t *testing.T) (*Mailer, *recorder) {
	t.Helper()
	m := New(config.MailSettings{Driver: "log", From: "tienda@retro.example", FromName: "Retro Music"})
	rec := &recorder{}
	m.SetTransport(rec)
	return m, rec
}

func TestSendBuildsMessage(t *testing.T) {
	m, rec := newMailer(t)

	err := m.To("ana@example.com").
		ReplyTo("soporte@retro.example").
		Subject("Código de recuperación").
		Text("Tu código es 123456").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tienda@retro.example", rec.from)
	assert.Equal(t, []string{"ana@example.com"}, rec.to)
	assert.Contains(t, rec.raw, "To: ana@example.com\r\n")
	assert.Contains(t, rec.raw, "Reply-To: soporte@retro.example\r\n")
	assert.Contains(t, rec.raw, "Subject: =?utf-8?q?")
	assert.Contains(t, rec.raw, "Content-Type: text/plain")
	assert.Contains(t, rec.raw, "\r\n\r\nTu código es 123456")
}

func TestSendRejectsHeaderInjection(t *testing.T) {
	m, _ := newMailer(t)
	err := m.To("ana@example.com\r\nBcc: x@evil.example").Subject("x").Text("y").Send(context.Background())
	assert.Error(t, err)

	err = m.To().Subject("x").Send(context.Background())
	assert.Error(t, err)
}

func TestSendPropagatesTransportError(t *testing.T) {
	m, rec := newMailer(t)
	rec.err = errors.New("smtp down")
	err := m.To("ana@example.com").HTML("<p>hola</p>").Send(context.Background())
	assert.EqualError(t, err, "smtp down")
	assert.Contains(t, rec.raw, "Content-Type: text/html")
}

func TestNewSelectsTransport(t *testing.T) {
	assert.IsType(t, LogTransport{}, New(config.MailSettings{Driver: "log"}).transport)
	assert.IsType(t, &SMTPTransport{}, New(config.MailSettings{Driver: "SMTP", Host: "mail", Port: 587}).transport)
}
