// Package mail provides the SMTP implementation of the notification
// transport. It wraps gomail and satisfies notify.Mailer.
package mail

import (
	"bytes"
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/JoaoPizoli/SatMaza/internal/config"
	"github.com/JoaoPizoli/SatMaza/internal/notify"
)

// SMTPMailer sends notification emails through an SMTP relay. It opens a
// fresh connection per message, which matches the low send volume of the
// dispatcher (a handful of emails per day).
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from the transport configuration.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers one message with its PDF attachment. Any dial or delivery
// error is returned as-is for the dispatcher's retry loop to handle.
func (m *SMTPMailer) Send(msg notify.Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: message for %q has no recipients", msg.Subject)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To...)
	if len(msg.CC) > 0 {
		gm.SetHeader("Cc", msg.CC...)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)

	if len(msg.Attachment) > 0 {
		name := msg.AttachmentName
		if name == "" {
			name = "report.pdf"
		}
		gm.Attach(name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(msg.Attachment))
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {"application/pdf"},
			}),
		)
	}

	return m.dialer.DialAndSend(gm)
}
