package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/ventanilla/servicedesk/internal/config"
	"github.com/ventanilla/servicedesk/internal/domain"
	"github.com/ventanilla/servicedesk/internal/sla"
	apperrors "github.com/ventanilla/servicedesk/pkg/util"
)

// Mailer delivers ticket emails.
type Mailer interface {
	SendAssignmentNotice(ctx context.Context, toEmail string, ticketID int64, requestType domain.RequestType) error
	SendReminderNotice(ctx context.Context, toEmail string, ticketID int64, requestType domain.RequestType, deadline time.Time) error
}

var assignmentTemplate = template.Must(template.New("assignment").Parse(`
<div style="font-family: Arial, Helvetica, sans-serif; color: #111827;">
  <h2 style="margin: 0 0 12px 0;">Se te asignó un ticket</h2>
  <p style="margin: 0 0 8px 0;">Hola,</p>
  <p style="margin: 0 0 16px 0;">
    Se te ha asignado el ticket <strong>#{{.TicketID}}</strong> ({{.RequestType}}).
  </p>
  <p style="margin: 0 0 16px 0;">Ingresa al dashboard para gestionarlo.</p>
  <div style="padding: 12px 16px; background: #f3f4f6; border-radius: 8px;">
    <strong>Ticket:</strong> #{{.TicketID}} – {{.RequestType}}
  </div>
  <p style="margin: 16px 0 0 0; font-size: 12px; color: #6b7280;">Ventanilla de Servicio Digital</p>
</div>
`))

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<div style="font-family: Arial, Helvetica, sans-serif; color: #111827;">
  <h2 style="margin: 0 0 12px 0;">Recordatorio de vencimiento</h2>
  <p style="margin: 0 0 16px 0;">
    El ticket <strong>#{{.TicketID}}</strong> ({{.RequestType}}) {{.Urgency}}.
  </p>
  <div style="padding: 12px 16px; background: #fef3c7; border-radius: 8px;">
    <strong>Fecha de compromiso:</strong> {{.Deadline}}
  </div>
  <p style="margin: 16px 0 0 0; font-size: 12px; color: #6b7280;">Ventanilla de Servicio Digital</p>
</div>
`))

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer constructs the mailer.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Configured reports whether delivery is possible.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.User != "" && m.cfg.Pass != ""
}

// SendAssignmentNotice emails the responsible person about a new assignment.
func (m *SMTPMailer) SendAssignmentNotice(ctx context.Context, toEmail string, ticketID int64, requestType domain.RequestType) error {
	subject := fmt.Sprintf("Asignación de Ticket #%d", ticketID)
	var body bytes.Buffer
	if err := assignmentTemplate.Execute(&body, map[string]any{
		"TicketID":    ticketID,
		"RequestType": requestType,
	}); err != nil {
		return apperrors.NewNotificationError(ticketID, err)
	}
	return m.send(ticketID, toEmail, subject, body.String())
}

// SendReminderNotice emails a pre-expiration reminder.
func (m *SMTPMailer) SendReminderNotice(ctx context.Context, toEmail string, ticketID int64, requestType domain.RequestType, deadline time.Time) error {
	subject := fmt.Sprintf("Recordatorio: Ticket #%d próximo a vencer", ticketID)
	var body bytes.Buffer
	if err := reminderTemplate.Execute(&body, map[string]any{
		"TicketID":    ticketID,
		"RequestType": requestType,
		"Urgency":     sla.UrgencyLabel(time.Now(), deadline),
		"Deadline":    sla.FormatDeadline(deadline),
	}); err != nil {
		return apperrors.NewNotificationError(ticketID, err)
	}
	return m.send(ticketID, toEmail, subject, body.String())
}

func (m *SMTPMailer) send(ticketID int64, toEmail, subject, htmlBody string) error {
	if !m.Configured() {
		return apperrors.NewNotificationError(ticketID, errors.New("smtp not configured"))
	}

	msg := fmt.Sprintf("From: %q <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.cfg.FromName, m.cfg.User, toEmail, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.User, []string{toEmail}, []byte(msg)); err != nil {
		return apperrors.NewNotificationError(ticketID, err)
	}
	return nil
}
