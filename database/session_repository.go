package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenmart/checkout-service/models"
)

// SessionRepository stores the checkout session that bridges commit and
// reconciliation: which cart lines a committed order came from, so the
// post-payment best-effort cleanup can find them.
type SessionRepository interface {
	Save(ctx context.Context, session *models.CheckoutSession) error
	Get(ctx context.Context, orderID string) (*models.CheckoutSession, error)
	Delete(ctx context.Context, orderID string) error
}

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *redisSessionRepository) getKey(orderID string) string {
	return fmt.Sprintf("checkout:session:%s", orderID)
}

func (r *redisSessionRepository) Save(ctx context.Context, session *models.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(session.OrderID), data, r.ttl).Err()
}

// Get returns (nil, nil) when no session exists; a missing session only
// means there is nothing left to clean up.
func (r *redisSessionRepository) Get(ctx context.Context, orderID string) (*models.CheckoutSession, error) {
	data, err := r.client.Get(ctx, r.getKey(orderID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.CheckoutSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, r.getKey(orderID)).Err()
}
