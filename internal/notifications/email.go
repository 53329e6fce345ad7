package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"seatwise/internal/reservations"
	"seatwise/internal/shared/config"
)

// EmailService renders and delivers ticket emails over SMTP.
type EmailService interface {
	SendTicket(ctx context.Context, job reservations.TicketEmailJob) error
}

type smtpEmailService struct {
	config   config.EmailConfig
	timeout  time.Duration
	template *template.Template
}

func NewSMTPEmailService(cfg config.EmailConfig) (EmailService, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	tmpl, err := template.New("ticket").Parse(ticketTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticket template: %w", err)
	}

	return &smtpEmailService{
		config:   cfg,
		timeout:  30 * time.Second,
		template: tmpl,
	}, nil
}

func (s *smtpEmailService) SendTicket(ctx context.Context, job reservations.TicketEmailJob) error {
	var body bytes.Buffer
	if err := s.template.Execute(&body, job); err != nil {
		return fmt.Errorf("failed to render ticket email: %w", err)
	}

	subject := fmt.Sprintf("Your ticket for %s — %s", job.EventTitle, job.ReservationCode)
	message := s.buildMessage(job.To, subject, body.String())

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	if err := s.sendWithSTARTTLS(addr, auth, job.To, message); err != nil {
		return fmt.Errorf("failed to send ticket email: %w", err)
	}
	return nil
}

func (s *smtpEmailService) buildMessage(to, subject, htmlBody string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	return msg.Bytes()
}

func (s *smtpEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		ServerName: s.config.SMTPHost,
	}
	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil && s.config.SMTPUsername != "" {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

const ticketTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: #fff; border-radius: 8px; padding: 30px;">
    <h1 style="color: #2c3e50; margin-top: 0;">🎟️ Your Ticket</h1>
    <p>Hi {{.UserName}},</p>
    <p>Your reservation is confirmed. Show the QR code below at the entrance.</p>
    <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
      <tr><td style="padding: 8px; color: #777;">Event</td><td style="padding: 8px;"><strong>{{.EventTitle}}</strong></td></tr>
      <tr><td style="padding: 8px; color: #777;">Date</td><td style="padding: 8px;">{{.EventDate}}</td></tr>
      <tr><td style="padding: 8px; color: #777;">Seat</td><td style="padding: 8px;">{{.SeatInfo}}</td></tr>
      <tr><td style="padding: 8px; color: #777;">Code</td><td style="padding: 8px;"><strong>{{.ReservationCode}}</strong></td></tr>
      <tr><td style="padding: 8px; color: #777;">Amount</td><td style="padding: 8px;">{{printf "%.2f" .TotalAmount}}</td></tr>
    </table>
    <div style="text-align: center; margin: 30px 0;">
      <img src="{{.QRCode}}" alt="Ticket QR code" style="width: 250px; height: 250px;"/>
    </div>
    <p style="color: #999; font-size: 12px;">Reservation {{.ReservationID}}. Keep this email; the code is your proof of reservation.</p>
  </div>
</body>
</html>`
