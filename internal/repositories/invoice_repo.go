package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"factura/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvoiceRepository interface {
	CreateWithItems(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	GetUnpaid(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
	GetByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error)
	GetLastForSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Invoice, error)
	ListDueOn(ctx context.Context, dueDate time.Time) ([]*models.Invoice, error)
	ListPastDue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error)
	GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error)
}

type invoiceRepo struct {
	db DBTX
}

func NewInvoiceRepo(db DBTX) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, invoice_number, customer_id, issue_date, due_date, subtotal, tax_amount, total_amount, status, notes, source_subscription_id, cycle_sequence, paid_date, created_at, updated_at`

// CreateWithItems persists the invoice and its line items atomically. A
// partially written invoice (header without items or the reverse) must never
// be visible, so everything goes through one transaction.
func (r *invoiceRepo) CreateWithItems(ctx context.Context, invoice *models.Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO invoices (id, invoice_number, customer_id, issue_date, due_date, subtotal, tax_amount, total_amount, status, notes, source_subscription_id, cycle_sequence, paid_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err = tx.Exec(ctx, query, invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, invoice.IssueDate, invoice.DueDate, invoice.Subtotal, invoice.TaxAmount, invoice.TotalAmount, invoice.Status, invoice.Notes, invoice.SourceSubscriptionID, invoice.CycleSequence, invoice.PaidDate)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, line_total, product_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.InvoiceID = invoice.ID
		if _, err := tx.Exec(ctx, itemQuery, item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.LineTotal, item.ProductID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.CustomerID, &invoice.IssueDate, &invoice.DueDate, &invoice.Subtotal, &invoice.TaxAmount, &invoice.TotalAmount, &invoice.Status, &invoice.Notes, &invoice.SourceSubscriptionID, &invoice.CycleSequence, &invoice.PaidDate, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}

	itemsQuery := `
		SELECT id, invoice_id, description, quantity, unit_price, line_total, product_id
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := models.InvoiceItem{}
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.LineTotal, &item.ProductID); err != nil {
			return nil, err
		}
		invoice.Items = append(invoice.Items, item)
	}
	return invoice, rows.Err()
}

func (r *invoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	query := `
		UPDATE invoices
		SET customer_id = $1, issue_date = $2, due_date = $3, subtotal = $4, tax_amount = $5, total_amount = $6, status = $7, notes = $8, paid_date = $9, updated_at = NOW()
		WHERE id = $10
	`
	_, err := r.db.Exec(ctx, query, invoice.CustomerID, invoice.IssueDate, invoice.DueDate, invoice.Subtotal, invoice.TaxAmount, invoice.TotalAmount, invoice.Status, invoice.Notes, invoice.PaidDate, invoice.ID)
	return err
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *invoiceRepo) List(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		ORDER BY issue_date DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

func (r *invoiceRepo) GetUnpaid(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status NOT IN ('paid', 'cancelled')
		ORDER BY due_date ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

func (r *invoiceRepo) GetByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE issue_date BETWEEN $1 AND $2
		ORDER BY issue_date ASC
	`
	rows, err := r.db.Query(ctx, query, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

// GetLastForSubscription returns the most recently materialized invoice for a
// subscription, or nil when no cycle has been billed yet. Ordering by
// cycle_sequence keeps the dedup check correct even if issue dates were ever
// backfilled out of order.
func (r *invoiceRepo) GetLastForSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE source_subscription_id = $1
		ORDER BY cycle_sequence DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, subscriptionID).Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.CustomerID, &invoice.IssueDate, &invoice.DueDate, &invoice.Subtotal, &invoice.TaxAmount, &invoice.TotalAmount, &invoice.Status, &invoice.Notes, &invoice.SourceSubscriptionID, &invoice.CycleSequence, &invoice.PaidDate, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}

// ListDueOn returns not-yet-paid invoices whose due date falls on the given
// calendar day. Used by the upcoming-payment reminder job.
func (r *invoiceRepo) ListDueOn(ctx context.Context, dueDate time.Time) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status IN ('draft', 'sent') AND due_date::date = $1::date
		ORDER BY due_date ASC
	`
	rows, err := r.db.Query(ctx, query, dueDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

func (r *invoiceRepo) ListPastDue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status = 'sent' AND due_date < $1
		ORDER BY due_date ASC
	`
	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanInvoices(rows)
}

// GenerateInvoiceNumber generates a unique, monotonically increasing invoice
// number for the issue month via an upsert on the invoice_sequences table.
func (r *invoiceRepo) GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	yearMonth := issueDate.Format("2006-01")

	query := `
		WITH upsert AS (
			INSERT INTO invoice_sequences (year_month, last_number)
			VALUES ($1, 1)
			ON CONFLICT (year_month)
			DO UPDATE SET
				last_number = invoice_sequences.last_number + 1,
				updated_at = NOW()
			RETURNING last_number
		)
		SELECT last_number FROM upsert;
	`

	var sequenceNum int
	err := r.db.QueryRow(ctx, query, yearMonth).Scan(&sequenceNum)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}

	return fmt.Sprintf("INV-%s-%06d", yearMonth, sequenceNum), nil
}

func (r *invoiceRepo) scanInvoices(rows pgx.Rows) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.CustomerID, &invoice.IssueDate, &invoice.DueDate, &invoice.Subtotal, &invoice.TaxAmount, &invoice.TotalAmount, &invoice.Status, &invoice.Notes, &invoice.SourceSubscriptionID, &invoice.CycleSequence, &invoice.PaidDate, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}
