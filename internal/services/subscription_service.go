package services

import (
	"context"
	"fmt"

	"factura/internal/models"
	"factura/internal/repositories"

	"github.com/google/uuid"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, subscription *models.Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, subscription *models.Subscription) error
	FinishSubscription(ctx context.Context, id uuid.UUID) error
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
	ListSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error)
}

type subscriptionService struct {
	repo repositories.SubscriptionRepository
}

// NewSubscriptionService creates a new SubscriptionService instance.
func NewSubscriptionService(repo repositories.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{repo: repo}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	if subscription.ID == uuid.Nil {
		subscription.ID = uuid.New()
	}
	if subscription.Status == "" {
		subscription.Status = models.SubscriptionStatusActive
	}
	if err := subscription.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, subscription)
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateSubscription validates and persists the new definition. A finished
// subscription stays finished; reactivating one would make the billing run
// pick it up again with a stale cycle history.
func (s *subscriptionService) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	if err := subscription.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, subscription.ID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if existing.Status == models.SubscriptionStatusFinished && subscription.Status != models.SubscriptionStatusFinished {
		return fmt.Errorf("a finished subscription cannot be reactivated")
	}

	return s.repo.Update(ctx, subscription)
}

// FinishSubscription ends a subscription immediately without waiting for its
// end date to pass. The next billing run will no longer see it.
func (s *subscriptionService) FinishSubscription(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	return s.repo.UpdateStatus(ctx, id, models.SubscriptionStatusFinished)
}

func (s *subscriptionService) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.List(ctx, limit, offset)
}
