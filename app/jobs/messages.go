package jobs

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ResetCodeMail carries a password reset code.
func ResetCodeMail(store, to, name, code string, ttl time.Duration) *SendMail {
	minutes := int(ttl.Minutes())
	return &SendMail{
		To:      to,
		Subject: fmt.Sprintf("%s: código para restablecer tu contraseña", store),
		Text: fmt.Sprintf("Hola %s,\n\nTu código de recuperación es %s.\nVence en %d minutos.\n\nSi no lo solicitaste, ignora este mensaje.\n",
			name, code, minutes),
		HTML: fmt.Sprintf("<p>Hola %s,</p><p>Tu código de recuperación es <b>%s</b>.</p><p>Vence en %d minutos.</p>",
			html.EscapeString(name), code, minutes),
	}
}

// ContactThanksMail acknowledges a contact form submission.
func ContactThanksMail(store, to, name, message string) *SendMail {
	return &SendMail{
		To:      to,
		Subject: "Gracias por contactarnos",
		Text: fmt.Sprintf("Hola %s,\n\nGracias por escribirnos, en breve será atendido.\n\nTu mensaje:\n%s\n\n%s\n",
			name, message, store),
		HTML: fmt.Sprintf("<h2>Hola %s,</h2><p>Gracias por escribirnos, <b>en breve será atendido</b>.</p><blockquote>%s</blockquote>",
			html.EscapeString(name), html.EscapeString(message)),
	}
}

// SubscriptionMail welcomes a newsletter subscriber.
func SubscriptionMail(store, to string) *SendMail {
	return &SendMail{
		To:      to,
		Subject: "¡Gracias por suscribirte!",
		Text:    fmt.Sprintf("Bienvenido(a) a %s. Pronto recibirás noticias, descuentos y novedades.\n", store),
		HTML:    "<h2>Bienvenido(a)</h2><p>Gracias por suscribirte a nuestro boletín. Pronto recibirás noticias, descuentos y novedades.</p>",
	}
}

// ReceiptLine is one row of an order confirmation.
type ReceiptLine struct {
	Name     string
	Quantity int
	Subtotal decimal.Decimal
}

// OrderConfirmationMail summarises a created order.
func OrderConfirmationMail(store, to string, orderID uint, lines []ReceiptLine, subtotal, tax, total decimal.Decimal) *SendMail {
	var b strings.Builder
	fmt.Fprintf(&b, "Gracias por tu compra en %s.\n\nOrden #%d\n\n", store, orderID)
	for _, l := range lines {
		fmt.Fprintf(&b, "  %d x %s  $%s\n", l.Quantity, l.Name, l.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: $%s\nIVA:      $%s\nTotal:    $%s\n",
		subtotal.StringFixed(2), tax.StringFixed(2), total.StringFixed(2))

	return &SendMail{
		To:      to,
		Subject: fmt.Sprintf("Confirmación de tu orden #%d", orderID),
		Text:    b.String(),
	}
}
