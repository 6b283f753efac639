package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/mail"
	"github.com/retromusic/storefront/pkg/queue"
)

type outbox struct {
	to  []string
	raw string
}

func (o *outbox) Deliver(_ context.Context, _ string, to []string, raw []byte) error {
	o.to, o.raw = to, string(raw)
	return nil
}

func TestSendMailThroughQueue(t *testing.T) {
	mailer := mail.New(config.MailSettings{From: "tienda@retro.example", FromName: "Retro Music"})
	box := &outbox{}
	mailer.SetTransport(box)

	driver := queue.NewMemoryDriver()
	q := queue.New(driver, queue.WithMaxRetry(1))
	Register(q, mailer)

	ctx := context.Background()
	require.NoError(t, q.Dispatch(ctx, ContactThanksMail("Retro Music", "ana@example.com", "Ana", "¿Tienen vinilos?")))

	raw, err := driver.Pop(ctx)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Mailer")

	require.NoError(t, q.Process(ctx, raw))
	assert.Equal(t, []string{"ana@example.com"}, box.to)
	assert.Contains(t, box.raw, "Hola Ana")
	assert.Empty(t, q.FailedJobs())
}

func TestSendMailHandle(t *testing.T) {
	mailer := mail.New(config.MailSettings{From: "tienda@retro.example"})
	box := &outbox{}
	mailer.SetTransport(box)

	job := ResetCodeMail("Retro Music", "ana@example.com", "Ana", "042917", 10*time.Minute)
	job.Mailer = mailer
	require.NoError(t, job.Handle(context.Background()))

	assert.Equal(t, []string{"ana@example.com"}, box.to)
	assert.Contains(t, box.raw, "042917")
	assert.Contains(t, box.raw, "10 minutos")
	assert.Contains(t, box.raw, "text/html")
}

func TestSendMailWithoutMailer(t *testing.T) {
	assert.ErrorIs(t, (&SendMail{To: "a@b.c"}).Handle(context.Background()), errNoMailer)
}

func TestOrderConfirmationMail(t *testing.T) {
	job := OrderConfirmationMail("Retro Music", "ana@example.com", 7,
		[]ReceiptLine{{Name: "Guitarra", Quantity: 2, Subtotal: decimal.RequireFromString("200")}},
		decimal.RequireFromString("200"), decimal.RequireFromString("32"), decimal.RequireFromString("232"))

	assert.Equal(t, "Confirmación de tu orden #7", job.Subject)
	assert.Contains(t, job.Text, "2 x Guitarra  $200.00")
	assert.Contains(t, job.Text, "Total:    $232.00")
	assert.Empty(t, job.HTML)
}
