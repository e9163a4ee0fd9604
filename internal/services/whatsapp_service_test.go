package services

import (
	"context"
	"testing"

	"factura/internal/config"
	"factura/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatPhoneNumber_InternationalPassthrough(t *testing.T) {
	number, err := FormatPhoneNumber("+49 151 2345 6789", "1")
	assert.NoError(t, err)
	assert.Equal(t, "4915123456789", number)
}

func TestFormatPhoneNumber_NationalGetsCountryCode(t *testing.T) {
	number, err := FormatPhoneNumber("(555) 010-2030", "1")
	assert.NoError(t, err)
	assert.Equal(t, "15550102030", number)
}

func TestFormatPhoneNumber_StripsFormatting(t *testing.T) {
	number, err := FormatPhoneNumber("+1-555-010-2030", "49")
	assert.NoError(t, err)
	assert.Equal(t, "15550102030", number)
}

func TestFormatPhoneNumber_TooShort(t *testing.T) {
	_, err := FormatPhoneNumber("12345", "1")
	assert.Error(t, err)
}

func TestWhatsAppSender_NotConfigured(t *testing.T) {
	sender := NewWhatsAppSender(config.WhatsAppSettings{}, "1")
	err := sender.SendInvoiceCreated(context.Background(), "+1 555 010 2030", "Acme", &models.Invoice{InvoiceNumber: "INV-2025-03-000001"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
