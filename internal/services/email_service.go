package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"factura/internal/config"
	"factura/internal/models"
)

// ErrNotConfigured is returned by a notification channel whose provider
// credentials are absent. Callers treat it as "skipped", not as a failure.
var ErrNotConfigured = errors.New("notification channel not configured")

// EmailSender is the outbound email channel for invoice notifications.
type EmailSender interface {
	SendInvoiceCreated(ctx context.Context, toAddr, toName string, invoice *models.Invoice) error
	SendPaymentReminder(ctx context.Context, toAddr, toName string, invoice *models.Invoice, daysAhead int) error
}

type smtpEmailSender struct {
	cfg         config.SMTPSettings
	dialTimeout time.Duration
}

// NewSMTPEmailSender creates an EmailSender backed by plain SMTP.
func NewSMTPEmailSender(cfg config.SMTPSettings) EmailSender {
	return &smtpEmailSender{
		cfg:         cfg,
		dialTimeout: 15 * time.Second,
	}
}

func (s *smtpEmailSender) SendInvoiceCreated(ctx context.Context, toAddr, toName string, invoice *models.Invoice) error {
	subject := fmt.Sprintf("New invoice %s", invoice.InvoiceNumber)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nA new invoice %s for %.2f has been issued on %s. Payment is due by %s.\r\n",
		toName, invoice.InvoiceNumber, invoice.TotalAmount,
		invoice.IssueDate.Format("2006-01-02"), invoice.DueDate.Format("2006-01-02"))
	return s.send(ctx, toAddr, subject, body)
}

func (s *smtpEmailSender) SendPaymentReminder(ctx context.Context, toAddr, toName string, invoice *models.Invoice, daysAhead int) error {
	subject := fmt.Sprintf("Payment reminder for invoice %s", invoice.InvoiceNumber)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nInvoice %s for %.2f is due in %d day(s), on %s.\r\n",
		toName, invoice.InvoiceNumber, invoice.TotalAmount, daysAhead,
		invoice.DueDate.Format("2006-01-02"))
	return s.send(ctx, toAddr, subject, body)
}

// send delivers one message over SMTP. The dial is bounded by dialTimeout so
// an unreachable relay cannot stall the billing run.
func (s *smtpEmailSender) send(ctx context.Context, toAddr, subject, body string) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return ErrNotConfigured
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, s.dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	deadline := time.Now().Add(s.dialTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set SMTP connection deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(toAddr); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.cfg.From, toAddr, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
