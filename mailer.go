package jobboard

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers notification emails over plain SMTP with optional
// AUTH. It implements Mailer.
type SMTPMailer struct {
	addr     string
	from     string
	username string
	password string
}

func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	return &SMTPMailer{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	var auth smtp.Auth
	if m.username != "" {
		host := m.addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}

	return smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg.String()))
}
