// Package mail envío de e-mails de notificación por SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/pkg/config"
)

var _ ports.Mailer = (*SMTPMailer)(nil)

// sender abstrae gomail.Dialer para tests.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer envía texto plano con gomail.
type SMTPMailer struct {
	from   string
	dialer sender
}

// NewSMTPMailer devuelve nil si el correo está deshabilitado; los casos de uso aceptan Mailer nil.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	if !cfg.Enabled || cfg.Host == "" {
		return nil
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &SMTPMailer{from: cfg.From, dialer: d}
}

// Send abre una conexión por mensaje; el volumen es bajo.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: enviar para %s: %w", to, err)
	}
	return nil
}
