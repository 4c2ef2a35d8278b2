package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/go-redis/redis/v8"
)

// ErrCorrupted is returned when a stored blob no longer decodes.
var ErrCorrupted = errors.New("stored value is corrupted")

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return NewRedisRepositoryFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}))
}

func NewRedisRepositoryFromClient(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON returns ErrNotFound for a missing key and ErrCorrupted when the
// stored value is not valid JSON for dest.
func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupted, key, err)
	}
	return nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// SessionStore keeps logged-in users under session:<id> with a TTL.
type SessionStore struct {
	redis *RedisRepository
	ttl   time.Duration
}

func NewSessionStore(r *RedisRepository, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: r, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *SessionStore) Save(ctx context.Context, session *models.Session) error {
	return s.redis.SetJSON(ctx, sessionKey(session.ID), session, s.ttl)
}

// Get drops a corrupted session before reporting it.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.redis.GetJSON(ctx, sessionKey(id), &session)
	if errors.Is(err, ErrCorrupted) {
		_ = s.redis.Del(ctx, sessionKey(id))
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, sessionKey(id))
}

// CartStore keeps one cart per session under cart:<sessionID>.
type CartStore struct {
	redis *RedisRepository
	ttl   time.Duration
}

func NewCartStore(r *RedisRepository, ttl time.Duration) *CartStore {
	return &CartStore{redis: r, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Get returns an empty cart when nothing is stored.
func (c *CartStore) Get(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := c.redis.GetJSON(ctx, cartKey(sessionID), &items)
	switch {
	case errors.Is(err, ErrNotFound):
		return []models.CartItem{}, nil
	case err != nil:
		return nil, err
	}
	return items, nil
}

func (c *CartStore) Save(ctx context.Context, sessionID string, items []models.CartItem) error {
	if len(items) == 0 {
		return c.Clear(ctx, sessionID)
	}
	return c.redis.SetJSON(ctx, cartKey(sessionID), items, c.ttl)
}

func (c *CartStore) Clear(ctx context.Context, sessionID string) error {
	return c.redis.Del(ctx, cartKey(sessionID))
}
