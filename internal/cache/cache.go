// Package cache stores encoded query results keyed by statement and arguments.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/config"
	"github.com/npri-watch/npri-api/internal/constants"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores val for ttl. A zero ttl uses the driver default.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Name is the driver name used in metrics.
	Name() string

	Close() error
}

// Key derives the cache key for a statement and its arguments.
func Key(query string, args []any) (string, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key arguments: %w", err)
	}

	d := xxhash.New()
	_, _ = d.WriteString(query)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(encoded)

	return constants.CacheKeyPrefix + strconv.FormatUint(d.Sum64(), 16), nil
}

// New builds the cache selected by cfg.Driver.
func New(ctx context.Context, cfg config.CacheSettings) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	switch cfg.Driver {
	case constants.CacheDriverMemory, "":
		size := cfg.Size
		if size <= 0 {
			size = constants.DefaultCacheSize
		}
		log.Info().Int("size", size).Dur("ttl", ttl).Msg("Using in-memory result cache")
		return NewMemory(size, ttl), nil
	case constants.CacheDriverRedis:
		c, err := NewRedis(ctx, cfg.RedisURL, ttl)
		if err != nil {
			return nil, err
		}
		log.Info().Dur("ttl", ttl).Msg("Using redis result cache")
		return c, nil
	case constants.CacheDriverNone:
		log.Info().Msg("Result cache disabled")
		return Noop{}, nil
	}

	return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
}
