package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"factura/internal/config"
	"factura/internal/models"
)

// WhatsAppSender is the outbound messaging channel for invoice notifications.
type WhatsAppSender interface {
	SendInvoiceCreated(ctx context.Context, phone, toName string, invoice *models.Invoice) error
	SendPaymentReminder(ctx context.Context, phone, toName string, invoice *models.Invoice, daysAhead int) error
}

type httpWhatsAppSender struct {
	cfg                config.WhatsAppSettings
	defaultCountryCode string
	httpClient         *http.Client
}

// NewWhatsAppSender creates a WhatsAppSender that posts JSON to a provider
// HTTP API. Without an API URL and token it reports ErrNotConfigured.
func NewWhatsAppSender(cfg config.WhatsAppSettings, defaultCountryCode string) WhatsAppSender {
	return &httpWhatsAppSender{
		cfg:                cfg,
		defaultCountryCode: defaultCountryCode,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *httpWhatsAppSender) SendInvoiceCreated(ctx context.Context, phone, toName string, invoice *models.Invoice) error {
	message := fmt.Sprintf("Hello %s, invoice %s for %.2f was issued on %s. Payment is due by %s.",
		toName, invoice.InvoiceNumber, invoice.TotalAmount,
		invoice.IssueDate.Format("2006-01-02"), invoice.DueDate.Format("2006-01-02"))
	return s.send(ctx, phone, message)
}

func (s *httpWhatsAppSender) SendPaymentReminder(ctx context.Context, phone, toName string, invoice *models.Invoice, daysAhead int) error {
	message := fmt.Sprintf("Hello %s, invoice %s for %.2f is due in %d day(s), on %s.",
		toName, invoice.InvoiceNumber, invoice.TotalAmount, daysAhead,
		invoice.DueDate.Format("2006-01-02"))
	return s.send(ctx, phone, message)
}

func (s *httpWhatsAppSender) send(ctx context.Context, phone, message string) error {
	if s.cfg.APIURL == "" || s.cfg.Token == "" {
		return ErrNotConfigured
	}

	to, err := FormatPhoneNumber(phone, s.defaultCountryCode)
	if err != nil {
		return fmt.Errorf("invalid recipient phone number: %w", err)
	}

	payload := map[string]string{
		"to":      to,
		"message": message,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.APIURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create message request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("message request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("message provider returned non-success status: %d", resp.StatusCode)
	}

	return nil
}

// FormatPhoneNumber normalizes a stored phone number into digits-only
// international form. Numbers that already carry a country code pass through;
// a bare 10-digit national number gets the configured default code prefixed.
// Storing E.164 numbers avoids the prefix heuristic entirely.
func FormatPhoneNumber(raw, defaultCountryCode string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if len(number) < 10 {
		return "", fmt.Errorf("phone number %q has too few digits", raw)
	}
	if len(number) == 10 {
		number = defaultCountryCode + number
	}
	return number, nil
}
