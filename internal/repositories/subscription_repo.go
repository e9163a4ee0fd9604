package repositories

import (
	"context"
	"fmt"

	"factura/internal/models"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	Update(ctx context.Context, subscription *models.Subscription) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Subscription, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db DBTX
}

func NewSubscriptionRepo(db DBTX) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

// Create persists the subscription and its line items in one transaction.
func (r *subscriptionRepo) Create(ctx context.Context, subscription *models.Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO subscriptions (id, customer_id, start_date, end_date, frequency, status, subtotal, tax_amount, total_amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err = tx.Exec(ctx, query, subscription.ID, subscription.CustomerID, subscription.StartDate, subscription.EndDate, subscription.Frequency, subscription.Status, subscription.Subtotal, subscription.TaxAmount, subscription.TotalAmount, subscription.Notes)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO subscription_items (id, subscription_id, description, quantity, unit_price, line_total, product_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range subscription.Items {
		item := &subscription.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SubscriptionID = subscription.ID
		if _, err := tx.Exec(ctx, itemQuery, item.ID, item.SubscriptionID, item.Description, item.Quantity, item.UnitPrice, item.LineTotal, item.ProductID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	query := `
		SELECT id, customer_id, start_date, end_date, frequency, status, subtotal, tax_amount, total_amount, notes, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&subscription.ID, &subscription.CustomerID, &subscription.StartDate, &subscription.EndDate, &subscription.Frequency, &subscription.Status, &subscription.Subtotal, &subscription.TaxAmount, &subscription.TotalAmount, &subscription.Notes, &subscription.CreatedAt, &subscription.UpdatedAt)
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, subscription.ID)
	if err != nil {
		return nil, err
	}
	subscription.Items = items
	return subscription, nil
}

// Update rewrites the subscription row and replaces its line items.
func (r *subscriptionRepo) Update(ctx context.Context, subscription *models.Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE subscriptions
		SET customer_id = $1, start_date = $2, end_date = $3, frequency = $4, status = $5, subtotal = $6, tax_amount = $7, total_amount = $8, notes = $9, updated_at = NOW()
		WHERE id = $10
	`
	_, err = tx.Exec(ctx, query, subscription.CustomerID, subscription.StartDate, subscription.EndDate, subscription.Frequency, subscription.Status, subscription.Subtotal, subscription.TaxAmount, subscription.TotalAmount, subscription.Notes, subscription.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM subscription_items WHERE subscription_id = $1`, subscription.ID); err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO subscription_items (id, subscription_id, description, quantity, unit_price, line_total, product_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range subscription.Items {
		item := &subscription.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SubscriptionID = subscription.ID
		if _, err := tx.Exec(ctx, itemQuery, item.ID, item.SubscriptionID, item.Description, item.Quantity, item.UnitPrice, item.LineTotal, item.ProductID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE subscriptions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *subscriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM subscription_items WHERE subscription_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *subscriptionRepo) List(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	query := `
		SELECT id, customer_id, start_date, end_date, frequency, status, subtotal, tax_amount, total_amount, notes, created_at, updated_at
		FROM subscriptions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscriptions []*models.Subscription
	for rows.Next() {
		subscription := &models.Subscription{}
		if err := rows.Scan(&subscription.ID, &subscription.CustomerID, &subscription.StartDate, &subscription.EndDate, &subscription.Frequency, &subscription.Status, &subscription.Subtotal, &subscription.TaxAmount, &subscription.TotalAmount, &subscription.Notes, &subscription.CreatedAt, &subscription.UpdatedAt); err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, rows.Err()
}

// ListByStatus returns subscriptions with their line items loaded; the
// billing run copies items into generated invoices, so a bare header row is
// not enough here.
func (r *subscriptionRepo) ListByStatus(ctx context.Context, status string) ([]*models.Subscription, error) {
	query := `
		SELECT id, customer_id, start_date, end_date, frequency, status, subtotal, tax_amount, total_amount, notes, created_at, updated_at
		FROM subscriptions
		WHERE status = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}

	var subscriptions []*models.Subscription
	for rows.Next() {
		subscription := &models.Subscription{}
		if err := rows.Scan(&subscription.ID, &subscription.CustomerID, &subscription.StartDate, &subscription.EndDate, &subscription.Frequency, &subscription.Status, &subscription.Subtotal, &subscription.TaxAmount, &subscription.TotalAmount, &subscription.Notes, &subscription.CreatedAt, &subscription.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		subscriptions = append(subscriptions, subscription)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, subscription := range subscriptions {
		items, err := r.loadItems(ctx, subscription.ID)
		if err != nil {
			return nil, err
		}
		subscription.Items = items
	}
	return subscriptions, nil
}

func (r *subscriptionRepo) loadItems(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionItem, error) {
	query := `
		SELECT id, subscription_id, description, quantity, unit_price, line_total, product_id
		FROM subscription_items
		WHERE subscription_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.SubscriptionItem
	for rows.Next() {
		item := models.SubscriptionItem{}
		if err := rows.Scan(&item.ID, &item.SubscriptionID, &item.Description, &item.Quantity, &item.UnitPrice, &item.LineTotal, &item.ProductID); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
