package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"indoor-position-engine/internal/config"
	"indoor-position-engine/internal/models"
)

const fixKeyPrefix = "fix:"

// FixStore caches the last computed fix per device in Redis so the HTTP
// API (and other engine instances) can read it without touching the
// positioning pipeline. Entries expire so a vanished device eventually
// reports no fix instead of a stale one.
type FixStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewFixStore(cfg config.RedisConfig, logger zerolog.Logger) (*FixStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &FixStore{
		rdb:    rdb,
		ttl:    cfg.FixTTL,
		logger: logger,
	}, nil
}

func (s *FixStore) SaveFix(ctx context.Context, position models.Position) error {
	payload, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}

	key := fixKeyPrefix + position.DeviceID
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}

	return nil
}

func (s *FixStore) GetFix(ctx context.Context, deviceID string) (*models.Position, error) {
	key := fixKeyPrefix + deviceID

	payload, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}

	var position models.Position
	if err := json.Unmarshal(payload, &position); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position: %w", err)
	}

	return &position, nil
}

// ListDevices scans for cached fixes and returns the device IDs.
func (s *FixStore) ListDevices(ctx context.Context) ([]string, error) {
	var (
		devices []string
		cursor  uint64
	)

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, fixKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis SCAN: %w", err)
		}

		for _, key := range keys {
			devices = append(devices, strings.TrimPrefix(key, fixKeyPrefix))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return devices, nil
}

func (s *FixStore) Close() error {
	return s.rdb.Close()
}
