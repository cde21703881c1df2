package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/config"
)

const (
	dataPrefix = "blob:"
	namePrefix = "blobname:"
)

// KV is the subset of the Redis client used by RedisStore.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Connect opens a Redis client for cfg and verifies it with PING.
//
// Postcondition: Returns a connected client or a non-nil error.
func Connect(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	db := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to cache %s: %w", cfg.Addr, err)
	}
	return db, nil
}

// RedisStore keeps blobs in Redis keyed by content address.
type RedisStore struct {
	db     KV
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a RedisStore. ttl 0 keeps blobs forever.
//
// Precondition: db and logger must be non-nil.
func NewRedisStore(db KV, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{db: db, ttl: ttl, logger: logger}
}

// Upload stores data and its original filename under the content address.
//
// Postcondition: Returns ErrUpload (wrapped) on failure.
func (s *RedisStore) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty data", ErrUpload)
	}
	addr := Address(data)
	if err := s.db.Set(ctx, dataPrefix+addr, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: storing %s: %v", ErrUpload, addr, err)
	}
	if filename != "" {
		if err := s.db.Set(ctx, namePrefix+addr, filename, s.ttl).Err(); err != nil {
			return "", fmt.Errorf("%w: storing name of %s: %v", ErrUpload, addr, err)
		}
	}
	s.logger.Info("blob uploaded",
		zap.String("address", addr),
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
	)
	return addr, nil
}

// Fetch returns the blob stored at address.
//
// Postcondition: Returns ErrNotFound when the key is absent.
func (s *RedisStore) Fetch(ctx context.Context, address string) ([]byte, error) {
	data, err := s.db.Get(ctx, dataPrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetching blob %s: %w", address, err)
	}
	return data, nil
}

// Filename returns the name the blob at address was uploaded with.
func (s *RedisStore) Filename(ctx context.Context, address string) (string, error) {
	name, err := s.db.Get(ctx, namePrefix+address).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("fetching blob name %s: %w", address, err)
	}
	return name, nil
}

// Health pings Redis within timeout.
func (s *RedisStore) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.Ping(ctx).Err()
}
