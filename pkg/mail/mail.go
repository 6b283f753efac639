// Package mail provides a fluent mailer with pluggable transports.
//
// Usage:
//
//	mailer.To("cliente@example.com").
//	    Subject("Gracias por tu compra").
//	    Text("Tu orden #12 fue registrada.").
//	    Send(ctx)
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/logger"
)

// Transport delivers an already-encoded RFC 5322 message.
type Transport interface {
	Deliver(ctx context.Context, from string, to []string, raw []byte) error
}

// Mailer builds messages from a sender identity and hands them to a Transport.
type Mailer struct {
	from      string
	fromName  string
	mu        sync.RWMutex
	transport Transport
}

// New builds a Mailer for s. The transport follows MAIL_DRIVER: "smtp"
// sends through the configured server, anything else logs.
func New(s config.MailSettings) *Mailer {
	var t Transport = LogTransport{}
	if strings.EqualFold(s.Driver, "smtp") {
		t = &SMTPTransport{
			Host:     s.Host,
			Port:     s.Port,
			Username: s.Username,
			Password: s.Password,
			TLS:      s.TLS,
		}
	}
	return &Mailer{from: s.From, fromName: s.FromName, transport: t}
}

// SetTransport swaps the transport, typically for a recording fake in tests.
func (m *Mailer) SetTransport(t Transport) {
	m.mu.Lock()
	m.transport = t
	m.mu.Unlock()
}

// Message is a fluent builder for an email.
type Message struct {
	mailer  *Mailer
	to      []string
	replyTo string
	subject string
	body    string
	isHTML  bool
}

// To starts a message to the given recipients.
func (m *Mailer) To(addresses ...string) *Message {
	return &Message{mailer: m, to: addresses}
}

// ReplyTo sets the Reply-To header.
func (msg *Message) ReplyTo(address string) *Message {
	msg.replyTo = address
	return msg
}

// Subject sets the email subject.
func (msg *Message) Subject(s string) *Message {
	msg.subject = s
	return msg
}

// HTML sets an HTML body.
func (msg *Message) HTML(html string) *Message {
	msg.body = html
	msg.isHTML = true
	return msg
}

// Text sets a plain-text body.
func (msg *Message) Text(text string) *Message {
	msg.body = text
	msg.isHTML = false
	return msg
}

// Send encodes the message and delivers it.
func (msg *Message) Send(ctx context.Context) error {
	if len(msg.to) == 0 {
		return errors.New("mail: no recipients")
	}
	for _, addr := range msg.to {
		if strings.ContainsAny(addr, "\r\n") {
			return fmt.Errorf("mail: invalid recipient %q", addr)
		}
	}

	m := msg.mailer
	m.mu.RLock()
	t := m.transport
	m.mu.RUnlock()

	from := fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.fromName), m.from)
	return t.Deliver(ctx, m.from, msg.to, msg.buildRaw(from))
}

func (msg *Message) buildRaw(from string) []byte {
	contentType := "text/plain"
	if msg.isHTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.to, ", ") + "\r\n")
	if msg.replyTo != "" && !strings.ContainsAny(msg.replyTo, "\r\n") {
		b.WriteString("Reply-To: " + msg.replyTo + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(msg.body)
	return []byte(b.String())
}

// LogTransport writes each message to the log instead of sending it.
type LogTransport struct{}

func (LogTransport) Deliver(ctx context.Context, from string, to []string, raw []byte) error {
	logger.WithCtx(ctx).Info("mail (log driver)", "from", from, "to", to, "bytes", len(raw))
	logger.WithCtx(ctx).Debug("mail body", "raw", string(raw))
	return nil
}

// SMTPTransport sends through an SMTP server. Port 465 uses implicit TLS;
// other ports use STARTTLS when the server offers it.
type SMTPTransport struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

func (s *SMTPTransport) Deliver(ctx context.Context, from string, to []string, raw []byte) error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	if s.Port == 465 || s.TLS {
		return s.sendTLS(ctx, addr, auth, from, to, raw)
	}
	return smtp.SendMail(addr, auth, from, to, raw)
}

func (s *SMTPTransport) sendTLS(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.Host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Quit() //nolint:errcheck

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
