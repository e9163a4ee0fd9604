package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"factura/internal/caching"
	"factura/internal/models"
	"factura/internal/repositories"

	"github.com/google/uuid"
)

const customerCacheTTL = 10 * time.Minute

type CustomerService interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	ListCustomers(ctx context.Context, limit, offset int) ([]*models.Customer, error)
}

type customerService struct {
	repo  repositories.CustomerRepository
	cache caching.CacheService
}

// NewCustomerService creates a new CustomerService instance. cache may be nil
// when Redis is not configured; lookups then always hit the database.
func NewCustomerService(repo repositories.CustomerRepository, cache caching.CacheService) CustomerService {
	return &customerService{repo: repo, cache: cache}
}

func (s *customerService) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.Name == "" {
		return fmt.Errorf("customer name is required")
	}
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	return s.repo.Create(ctx, customer)
}

// GetCustomer reads through the cache. Cache errors degrade to a database
// read; the cache is never the source of truth.
func (s *customerService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCustomer(ctx, id)
		if err != nil {
			log.Printf("Customer cache read failed for %s: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCustomer(ctx, customer, customerCacheTTL); err != nil {
			log.Printf("Customer cache write failed for %s: %v", id, err)
		}
	}
	return customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.Name == "" {
		return fmt.Errorf("customer name is required")
	}
	if err := s.repo.Update(ctx, customer); err != nil {
		return err
	}
	s.invalidate(ctx, customer.ID)
	return nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *customerService) ListCustomers(ctx context.Context, limit, offset int) ([]*models.Customer, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *customerService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteCustomer(ctx, id); err != nil {
		log.Printf("Customer cache invalidation failed for %s: %v", id, err)
	}
}
