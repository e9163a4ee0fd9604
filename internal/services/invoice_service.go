package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"factura/internal/models"
	"factura/internal/repositories"

	"github.com/google/uuid"
)

// validStatusTransitions defines the invoice lifecycle. Anything not listed
// here is rejected; in particular a paid invoice never leaves paid.
var validStatusTransitions = map[string][]string{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent, models.InvoiceStatusCancelled},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid, models.InvoiceStatusCancelled},
}

type InvoiceService interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	GetUnpaidInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	GetInvoicesByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkOverdueInvoices(ctx context.Context) (int, error)
}

type invoiceService struct {
	repo  repositories.InvoiceRepository
	nowFn func() time.Time
}

// NewInvoiceService creates a new InvoiceService instance.
func NewInvoiceService(repo repositories.InvoiceRepository) InvoiceService {
	return &invoiceService{repo: repo, nowFn: time.Now}
}

func (s *invoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *invoiceService) ListInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *invoiceService) GetUnpaidInvoices(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	return s.repo.GetUnpaid(ctx, limit, offset)
}

func (s *invoiceService) GetInvoicesByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error) {
	return s.repo.GetByDateRange(ctx, startDate, endDate)
}

// UpdateInvoiceStatus moves an invoice along its lifecycle. Marking an
// invoice paid also stamps the payment date.
func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status string) error {
	invoice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load invoice: %w", err)
	}

	if invoice.Status == status {
		return nil
	}
	if !transitionAllowed(invoice.Status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", invoice.Status, status)
	}

	if status == models.InvoiceStatusPaid {
		now := s.nowFn()
		invoice.Status = status
		invoice.PaidDate = &now
		return s.repo.Update(ctx, invoice)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// MarkOverdueInvoices flips sent invoices whose due date has passed to
// overdue and returns how many were flipped.
func (s *invoiceService) MarkOverdueInvoices(ctx context.Context) (int, error) {
	invoices, err := s.repo.ListPastDue(ctx, s.nowFn())
	if err != nil {
		return 0, fmt.Errorf("failed to list past-due invoices: %w", err)
	}

	marked := 0
	for _, invoice := range invoices {
		if err := s.repo.UpdateStatus(ctx, invoice.ID, models.InvoiceStatusOverdue); err != nil {
			log.Printf("Failed to mark invoice %s overdue: %v", invoice.InvoiceNumber, err)
			continue
		}
		marked++
	}
	if marked > 0 {
		log.Printf("Marked %d invoice(s) overdue", marked)
	}
	return marked, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
