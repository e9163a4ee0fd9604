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

// BillingService runs the recurring billing cycle: it walks the active
// subscriptions, figures out which ones have a cycle coming due, and
// materializes an invoice for each of those exactly once.
type BillingService interface {
	ProcessSubscriptions(ctx context.Context, lookaheadDays int) (*BillingRunSummary, error)
}

// BillingRunSummary reports what a single billing run did.
type BillingRunSummary struct {
	Processed int `json:"processed"`
	Generated int `json:"generated"`
	Finished  int `json:"finished"`
	Overdue   int `json:"overdue"`
	Failed    int `json:"failed"`
}

type billingService struct {
	subscriptionRepo repositories.SubscriptionRepository
	invoiceRepo      repositories.InvoiceRepository
	customerRepo     repositories.CustomerRepository
	notifier         NotifierService
	paymentTermDays  int
	nowFn            func() time.Time
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(
	subscriptionRepo repositories.SubscriptionRepository,
	invoiceRepo repositories.InvoiceRepository,
	customerRepo repositories.CustomerRepository,
	notifier NotifierService,
	paymentTermDays int,
) BillingService {
	return &billingService{
		subscriptionRepo: subscriptionRepo,
		invoiceRepo:      invoiceRepo,
		customerRepo:     customerRepo,
		notifier:         notifier,
		paymentTermDays:  paymentTermDays,
		nowFn:            time.Now,
	}
}

// ProcessSubscriptions evaluates every active subscription against the
// lookahead window. A subscription that fails is logged and counted, never
// allowed to abort the rest of the batch; only a failure to list the batch
// itself comes back as an error.
func (s *billingService) ProcessSubscriptions(ctx context.Context, lookaheadDays int) (*BillingRunSummary, error) {
	if lookaheadDays < 0 {
		return nil, fmt.Errorf("lookahead days must not be negative")
	}

	subscriptions, err := s.subscriptionRepo.ListByStatus(ctx, models.SubscriptionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	summary := &BillingRunSummary{}
	for _, subscription := range subscriptions {
		summary.Processed++
		if err := s.processOne(ctx, subscription, lookaheadDays, summary); err != nil {
			summary.Failed++
			log.Printf("Failed to process subscription %s: %v", subscription.ID, err)
		}
	}

	log.Printf("Billing run complete: processed=%d generated=%d finished=%d overdue=%d failed=%d",
		summary.Processed, summary.Generated, summary.Finished, summary.Overdue, summary.Failed)
	return summary, nil
}

func (s *billingService) processOne(ctx context.Context, subscription *models.Subscription, lookaheadDays int, summary *BillingRunSummary) error {
	now := s.nowFn()

	// A subscription past its end date stops generating invoices and is
	// marked finished so later runs skip it at the query level.
	if subscription.EndDate != nil && subscription.EndDate.Before(now) {
		if err := s.subscriptionRepo.UpdateStatus(ctx, subscription.ID, models.SubscriptionStatusFinished); err != nil {
			return fmt.Errorf("failed to mark subscription finished: %w", err)
		}
		summary.Finished++
		log.Printf("Subscription %s reached its end date, marked finished", subscription.ID)
		return nil
	}

	last, err := s.invoiceRepo.GetLastForSubscription(ctx, subscription.ID)
	if err != nil {
		return fmt.Errorf("failed to load last invoice: %w", err)
	}

	var nextDue time.Time
	cycleSequence := 1
	if last == nil {
		nextDue = subscription.StartDate
	} else {
		nextDue, err = NextDate(last.IssueDate, subscription.Frequency, 1)
		if err != nil {
			return fmt.Errorf("failed to compute next billing date: %w", err)
		}
		if last.CycleSequence != nil {
			cycleSequence = *last.CycleSequence + 1
		}
	}

	days := DaysUntil(nextDue, now)
	switch {
	case days < 0:
		// An overdue cycle is surfaced for operators but never billed
		// automatically; backdating an invoice is a manual decision.
		summary.Overdue++
		log.Printf("Subscription %s cycle %d is %d day(s) overdue, skipping automatic generation", subscription.ID, cycleSequence, -days)
		return nil
	case days <= lookaheadDays:
		invoice, err := s.materializeInvoice(ctx, subscription, nextDue, cycleSequence)
		if err != nil {
			return err
		}
		summary.Generated++
		log.Printf("Generated invoice %s for subscription %s cycle %d", invoice.InvoiceNumber, subscription.ID, cycleSequence)

		customer, err := s.customerRepo.GetByID(ctx, subscription.CustomerID)
		if err != nil {
			log.Printf("Failed to load customer %s for invoice notification: %v", subscription.CustomerID, err)
			return nil
		}
		s.notifier.NotifyInvoiceCreated(ctx, customer, invoice)
		return nil
	default:
		return nil
	}
}

// materializeInvoice turns a subscription cycle into a concrete draft invoice.
// Amounts and line items are copied verbatim from the subscription; the due
// date is the cycle date plus the configured payment term.
func (s *billingService) materializeInvoice(ctx context.Context, subscription *models.Subscription, issueDate time.Time, cycleSequence int) (*models.Invoice, error) {
	invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, issueDate)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}

	sourceID := subscription.ID
	sequence := cycleSequence
	invoice := &models.Invoice{
		ID:                   uuid.New(),
		InvoiceNumber:        invoiceNumber,
		CustomerID:           subscription.CustomerID,
		IssueDate:            issueDate,
		DueDate:              issueDate.AddDate(0, 0, s.paymentTermDays),
		Subtotal:             subscription.Subtotal,
		TaxAmount:            subscription.TaxAmount,
		TotalAmount:          subscription.TotalAmount,
		Status:               models.InvoiceStatusDraft,
		Notes:                buildInvoiceNotes(subscription),
		SourceSubscriptionID: &sourceID,
		CycleSequence:        &sequence,
	}

	for _, item := range subscription.Items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			ProductID:   item.ProductID,
		})
	}

	if err := s.invoiceRepo.CreateWithItems(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoice, nil
}

// buildInvoiceNotes prefixes the subscription provenance tag for human
// readers. Dedup relies on the dedicated columns, not on this string.
func buildInvoiceNotes(subscription *models.Subscription) string {
	notes := fmt.Sprintf("[subscription:%s]", subscription.ID)
	if subscription.Notes != "" {
		notes += " " + subscription.Notes
	}
	return notes
}
