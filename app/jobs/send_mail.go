// Package jobs contains the queued background work of the storefront.
package jobs

import (
	"context"
	"errors"

	"github.com/retromusic/storefront/pkg/mail"
	"github.com/retromusic/storefront/pkg/queue"
)

// SendMail delivers one message, HTML when present, otherwise text. Only the message fields are serialised; the
// worker factory supplies the Mailer.
type SendMail struct {
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`

	Mailer *mail.Mailer `json:"-"`
}

var errNoMailer = errors.New("jobs: SendMail has no mailer")

func (j *SendMail) Handle(ctx context.Context) error {
	if j.Mailer == nil {
		return errNoMailer
	}
	msg := j.Mailer.To(j.To).Subject(j.Subject)
	if j.ReplyTo != "" {
		msg = msg.ReplyTo(j.ReplyTo)
	}
	if j.HTML != "" {
		msg = msg.HTML(j.HTML)
	} else {
		msg = msg.Text(j.Text)
	}
	return msg.Send(ctx)
}

// Register teaches q how to rebuild every job in this package.
func Register(q *queue.Manager, mailer *mail.Mailer) {
	q.Register(func() queue.Job { return &SendMail{Mailer: mailer} })
}
