package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"factura/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Customer caching
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error
	DeleteCustomer(ctx context.Context, customerID uuid.UUID) error

	// Run locks for scheduled jobs. AcquireRunLock returns false when another
	// run already holds the lock; the TTL bounds how long a crashed run can
	// keep the lock.
	AcquireRunLock(ctx context.Context, jobName string, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, jobName string) error

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port URLs as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	key := fmt.Sprintf("factura:customer:%s", customerID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var customer models.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *redisCacheService) SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error {
	key := fmt.Sprintf("factura:customer:%s", customer.ID.String())
	data, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteCustomer(ctx context.Context, customerID uuid.UUID) error {
	key := fmt.Sprintf("factura:customer:%s", customerID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) AcquireRunLock(ctx context.Context, jobName string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("factura:runlock:%s", jobName)
	return r.client.SetNX(ctx, key, time.Now().Format(time.RFC3339), ttl).Result()
}

func (r *redisCacheService) ReleaseRunLock(ctx context.Context, jobName string) error {
	key := fmt.Sprintf("factura:runlock:%s", jobName)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}
