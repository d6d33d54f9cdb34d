package config

import (
	"context"
	"fmt"

	"github.com/openrelief/surveyflow/pkg/adapters/memory"
	"github.com/openrelief/surveyflow/pkg/adapters/redis"
	"github.com/openrelief/surveyflow/pkg/adapters/sqlite"
	"github.com/openrelief/surveyflow/pkg/persistence/middleware"
	"github.com/openrelief/surveyflow/pkg/ports"
	"github.com/openrelief/surveyflow/pkg/session"
)

// Backend is the submission storage selected by a Config.
type Backend struct {
	Name   string // "memory", "redis" or "sqlite"
	Store  ports.SubmissionStore
	Locker ports.DistributedLocker // Set for redis only

	close func() error
}

// Close releases the backend connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// SessionOptions returns the session manager options wiring this backend.
func (b *Backend) SessionOptions() []session.Option {
	opts := []session.Option{session.WithSubmissionStore(b.Store)}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
	}
	return opts
}

// OpenBackend connects the configured submission store and wraps it with PII masking
// and encryption when configured. Masking runs before encryption.
func OpenBackend(ctx context.Context, cfg *Config) (*Backend, error) {
	b := &Backend{}

	switch {
	case cfg.SQLitePath != "":
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.Name, b.Store, b.close = "sqlite", store, store.Close

	case cfg.RedisAddr != "":
		var opts []redis.Option
		if cfg.RedisTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.RedisTTL))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		b.Name, b.Store, b.close = "redis", store, store.Close
		b.Locker = redis.NewLocker(store.Client(), "surveyflow:")

	default:
		b.Name, b.Store = "memory", memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.PIIQuestions) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIQuestions))
	}
	if len(cfg.EncryptionKey) > 0 {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    cfg.EncryptionKey,
			FallbackKeys: cfg.FallbackKeys,
		}))
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}
