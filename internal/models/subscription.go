package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Frequency is the billing cadence of a subscription.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ValidFrequency reports whether f is one of the four supported cadences.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusFinished = "finished"
)

type Subscription struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	CustomerID  uuid.UUID          `json:"customer_id" db:"customer_id"`
	StartDate   time.Time          `json:"start_date" db:"start_date"`
	EndDate     *time.Time         `json:"end_date" db:"end_date"`
	Frequency   Frequency          `json:"frequency" db:"frequency"`
	Status      string             `json:"status" db:"status"`
	Subtotal    float64            `json:"subtotal" db:"subtotal"`
	TaxAmount   float64            `json:"tax_amount" db:"tax_amount"`
	TotalAmount float64            `json:"total_amount" db:"total_amount"`
	Notes       string             `json:"notes" db:"notes"`
	Items       []SubscriptionItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

type SubscriptionItem struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	SubscriptionID uuid.UUID  `json:"subscription_id" db:"subscription_id"`
	Description    string     `json:"description" db:"description"`
	Quantity       float64    `json:"quantity" db:"quantity"`
	UnitPrice      float64    `json:"unit_price" db:"unit_price"`
	LineTotal      float64    `json:"line_total" db:"line_total"`
	ProductID      *uuid.UUID `json:"product_id" db:"product_id"`
}

// Validate checks the subscription invariants before persistence.
func (s *Subscription) Validate() error {
	if s.CustomerID == uuid.Nil {
		return fmt.Errorf("customer_id is required")
	}
	if s.StartDate.IsZero() {
		return fmt.Errorf("start_date is required")
	}
	if !ValidFrequency(s.Frequency) {
		return fmt.Errorf("invalid frequency: %s (must be one of: daily, weekly, monthly, yearly)", s.Frequency)
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return fmt.Errorf("end_date cannot be before start_date")
	}
	// Totals are copied verbatim into generated invoices, so the arithmetic
	// has to hold here rather than at materialization time.
	if math.Abs(s.TotalAmount-(s.Subtotal+s.TaxAmount)) > 0.01 {
		return fmt.Errorf("total_amount must equal subtotal + tax_amount")
	}
	return nil
}
