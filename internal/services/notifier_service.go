package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"factura/internal/models"
	"factura/internal/repositories"
)

// NotifierService fans invoice events out to the configured channels. Channel
// delivery is best effort: a failure is logged and never propagated, and one
// channel's outcome does not affect the other.
type NotifierService interface {
	NotifyInvoiceCreated(ctx context.Context, customer *models.Customer, invoice *models.Invoice)
	SendUpcomingReminders(ctx context.Context, daysAhead int) (*ReminderSummary, error)
}

// ReminderSummary reports what a reminder run did.
type ReminderSummary struct {
	DaysAhead int `json:"days_ahead"`
	Examined  int `json:"examined"`
	Notified  int `json:"notified"`
}

type notifierService struct {
	invoiceRepo  repositories.InvoiceRepository
	customerRepo repositories.CustomerRepository
	email        EmailSender
	whatsapp     WhatsAppSender
	nowFn        func() time.Time
}

// NewNotifierService creates a new NotifierService instance.
func NewNotifierService(
	invoiceRepo repositories.InvoiceRepository,
	customerRepo repositories.CustomerRepository,
	email EmailSender,
	whatsapp WhatsAppSender,
) NotifierService {
	return &notifierService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		email:        email,
		whatsapp:     whatsapp,
		nowFn:        time.Now,
	}
}

// NotifyInvoiceCreated attempts both channels for a freshly materialized
// invoice. The invoice is already committed; nothing here may roll it back or
// block the billing run beyond the channels' own timeouts.
func (s *notifierService) NotifyInvoiceCreated(ctx context.Context, customer *models.Customer, invoice *models.Invoice) {
	if customer.Email != "" {
		err := s.email.SendInvoiceCreated(ctx, customer.Email, customer.Name, invoice)
		s.logChannelResult("email", "invoice-created", invoice.InvoiceNumber, err)
	}
	if customer.Phone != "" {
		err := s.whatsapp.SendInvoiceCreated(ctx, customer.Phone, customer.Name, invoice)
		s.logChannelResult("whatsapp", "invoice-created", invoice.InvoiceNumber, err)
	}
}

// SendUpcomingReminders notifies customers of unpaid invoices due exactly
// daysAhead from today. Only a whole-batch failure is returned; anything per
// invoice is logged and skipped.
func (s *notifierService) SendUpcomingReminders(ctx context.Context, daysAhead int) (*ReminderSummary, error) {
	if daysAhead < 0 {
		return nil, fmt.Errorf("days ahead must not be negative")
	}

	target := s.nowFn().AddDate(0, 0, daysAhead)
	invoices, err := s.invoiceRepo.ListDueOn(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices due in %d days: %w", daysAhead, err)
	}

	summary := &ReminderSummary{DaysAhead: daysAhead}
	for _, invoice := range invoices {
		summary.Examined++

		customer, err := s.customerRepo.GetByID(ctx, invoice.CustomerID)
		if err != nil {
			log.Printf("Failed to load customer %s for invoice %s reminder: %v", invoice.CustomerID, invoice.InvoiceNumber, err)
			continue
		}

		notified := false
		if customer.Email != "" {
			err := s.email.SendPaymentReminder(ctx, customer.Email, customer.Name, invoice, daysAhead)
			s.logChannelResult("email", "payment-reminder", invoice.InvoiceNumber, err)
			if err == nil {
				notified = true
			}
		}
		if customer.Phone != "" {
			err := s.whatsapp.SendPaymentReminder(ctx, customer.Phone, customer.Name, invoice, daysAhead)
			s.logChannelResult("whatsapp", "payment-reminder", invoice.InvoiceNumber, err)
			if err == nil {
				notified = true
			}
		}
		if notified {
			summary.Notified++
		}
	}

	log.Printf("Reminder run (%d days ahead): examined %d invoices, notified %d", daysAhead, summary.Examined, summary.Notified)
	return summary, nil
}

func (s *notifierService) logChannelResult(channel, kind, invoiceNumber string, err error) {
	switch {
	case err == nil:
		log.Printf("[%s] %s notification sent for invoice %s", channel, kind, invoiceNumber)
	case errors.Is(err, ErrNotConfigured):
		log.Printf("[%s] %s notification skipped for invoice %s: channel not configured", channel, kind, invoiceNumber)
	default:
		log.Printf("[%s] Failed to send %s notification for invoice %s: %v", channel, kind, invoiceNumber, err)
	}
}
