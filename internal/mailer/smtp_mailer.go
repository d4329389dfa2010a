package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/config"
)

var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`Hello {{.Name}},

Welcome to MoveOut. Please verify your email address by opening the link below.

{{.BaseURL}}/verify-email?token={{.Token}}

The MoveOut Team`))

	warningTmpl = template.Must(template.New("warning").Parse(
		`Hello {{.Name}},

You have been inactive for a while. Your account will be deactivated in {{.Minutes}} minute{{if ne .Minutes 1}}s{{end}} unless you log in again.

Log in at {{.BaseURL}} to keep your account active.

The MoveOut Team`))

	deactivationTmpl = template.Must(template.New("deactivation").Parse(
		`Hello {{.Name}},

Your account has been deactivated. If you wish to reactivate your account, please log in to your account.

{{.BaseURL}}

The MoveOut Team`))

	deletionTmpl = template.Must(template.New("deletion").Parse(
		`Hello {{.Name}},

Your account and all associated data have been permanently deleted. This action cannot be undone.

The MoveOut Team`))
)

type mailData struct {
	Name    string
	Minutes int
	BaseURL string
	Token   string
}

// SMTPMailer sends lifecycle mail through a plain SMTP relay.
type SMTPMailer struct {
	addr    string
	auth    smtp.Auth
	from    string
	baseURL string
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr:    cfg.SMTPHost + ":" + cfg.SMTPPort,
		auth:    auth,
		from:    cfg.MailFrom,
		baseURL: cfg.AppBaseURL,
		send:    smtp.SendMail,
	}
}

func (m *SMTPMailer) SendEmailVerification(ctx context.Context, email, name, token string) error {
	return m.deliver(ctx, email, "Verify your MoveOut email address", verificationTmpl, mailData{
		Name:    name,
		BaseURL: m.baseURL,
		Token:   token,
	})
}

func (m *SMTPMailer) SendInactivityWarning(ctx context.Context, email, name string, remaining time.Duration) error {
	return m.deliver(ctx, email, "Your MoveOut account will be deactivated soon", warningTmpl, mailData{
		Name:    name,
		Minutes: RemainingMinutes(remaining),
		BaseURL: m.baseURL,
	})
}

func (m *SMTPMailer) SendDeactivationNotice(ctx context.Context, email, name string) error {
	return m.deliver(ctx, email, "Your MoveOut account has been deactivated", deactivationTmpl, mailData{
		Name:    name,
		BaseURL: m.baseURL,
	})
}

func (m *SMTPMailer) SendDeletionConfirmation(ctx context.Context, email, name string) error {
	return m.deliver(ctx, email, "Your MoveOut account has been deleted", deletionTmpl, mailData{Name: name})
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject string, tmpl *template.Template, data mailData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render mail template: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.Write(body.Bytes())

	if err := m.send(m.addr, m.auth, m.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
