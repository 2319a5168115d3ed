package mail

import (
	"context"
	"errors"
	"strings"
)

var ErrNoRecipients = errors.New("mail: message has no recipients")

// Message is one outbound HTML email. Bcc recipients never appear in headers.
type Message struct {
	To      []string `json:"to"`
	Bcc     []string `json:"bcc,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Sender delivers a message. The SMTP sender talks to the relay directly, the
// queue dispatcher defers delivery to a background job.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recipients returns every envelope recipient.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Bcc))
	for _, r := range append(append([]string{}, m.To...), m.Bcc...) {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (m Message) Validate() error {
	if len(m.Recipients()) == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail: subject is required")
	}
	return nil
}
