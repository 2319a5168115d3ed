package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/internal/pkg/env"
)

// SMTPSender sends emails via SMTP
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewSMTPSenderFromEnv() *SMTPSender {
	s := &SMTPSender{
		Host:     env.GetEnv("SMTP_HOST", "localhost"),
		Port:     env.GetEnv("SMTP_PORT", "25"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		From:     env.GetEnv("SMTP_SENDER", ""),
	}
	if s.From == "" {
		s.From = "no-reply@localhost"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", s.From)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.Username != "" && s.Password != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	addr := s.Host + ":" + s.Port

	if err := smtp.SendMail(addr, auth, s.From, msg.Recipients(), BuildMessage(s.From, msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send %q: %w", msg.Subject, err)
	}
	log.Infof("[Mail] Sent %q to %d recipient(s) via %s", msg.Subject, len(msg.Recipients()), addr)
	return nil
}

// BuildMessage renders the RFC 5322 message. Bcc is left out on purpose.
func BuildMessage(from string, msg Message, now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	if len(msg.To) > 0 {
		fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	} else {
		b.WriteString("To: undisclosed-recipients:;\r\n")
	}
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}
