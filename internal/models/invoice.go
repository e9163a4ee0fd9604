package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

type Invoice struct {
	ID            uuid.UUID `json:"id" db:"id"`
	InvoiceNumber string    `json:"invoice_number" db:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id" db:"customer_id"`
	IssueDate     time.Time `json:"issue_date" db:"issue_date"`
	DueDate       time.Time `json:"due_date" db:"due_date"`
	Subtotal      float64   `json:"subtotal" db:"subtotal"`
	TaxAmount     float64   `json:"tax_amount" db:"tax_amount"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	Status        string    `json:"status" db:"status"`
	Notes         string    `json:"notes" db:"notes"`
	// SourceSubscriptionID and CycleSequence tie a generated invoice to the
	// subscription cycle it was materialized for. The pair is unique in the
	// database, which is what makes the billing run idempotent.
	SourceSubscriptionID *uuid.UUID    `json:"source_subscription_id" db:"source_subscription_id"`
	CycleSequence        *int          `json:"cycle_sequence" db:"cycle_sequence"`
	PaidDate             *time.Time    `json:"paid_date" db:"paid_date"`
	Items                []InvoiceItem `json:"items"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

type InvoiceItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	InvoiceID   uuid.UUID  `json:"invoice_id" db:"invoice_id"`
	Description string     `json:"description" db:"description"`
	Quantity    float64    `json:"quantity" db:"quantity"`
	UnitPrice   float64    `json:"unit_price" db:"unit_price"`
	LineTotal   float64    `json:"line_total" db:"line_total"`
	ProductID   *uuid.UUID `json:"product_id" db:"product_id"`
}
