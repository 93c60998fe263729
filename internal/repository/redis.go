package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studiobook/internal/config"
	"studiobook/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisSlotCache keeps the occupied-slots projection per date. The
// calendar view hits this on every page load, the database only on miss.
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	return &RedisSlotCache{
		client: client,
		ttl:    ttl,
	}
}

func slotKey(date time.Time) string {
	return fmt.Sprintf("occupied_slots:%s", date.Format("2006-01-02"))
}

func (r *RedisSlotCache) GetSlots(ctx context.Context, date time.Time) ([]models.Slot, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, slotKey(date)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slots from redis: %w", err)
	}

	var slots []models.Slot
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slots: %w", err)
	}

	return slots, nil
}

func (r *RedisSlotCache) SetSlots(ctx context.Context, date time.Time, slots []models.Slot) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to marshal slots: %w", err)
	}

	if err := r.client.Set(ctx, slotKey(date), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set slots in redis: %w", err)
	}

	return nil
}

func (r *RedisSlotCache) InvalidateDate(ctx context.Context, date time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, slotKey(date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate slots in redis: %w", err)
	}
	return nil
}
