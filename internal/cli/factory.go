package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/config"
	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/adapters/file"
	"github.com/aretw0/bardic/pkg/adapters/memory"
	"github.com/aretw0/bardic/pkg/adapters/redis"
	"github.com/aretw0/bardic/pkg/adapters/sqlite"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/observability"
	"github.com/aretw0/bardic/pkg/persistence/middleware"
	"github.com/aretw0/bardic/pkg/ports"
	"github.com/aretw0/bardic/pkg/schema"
)

// LoadStory reads a compiled .json story or compiles a .bard source.
func LoadStory(path string, logger *slog.Logger) (*domain.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		doc, err := schema.DecodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return doc, nil
	}
	return compiler.CompileFile(path, compiler.WithLogger(logger))
}

// NewLogger builds the application logger. debug forces the debug level.
func NewLogger(cfg config.LoggingConfig, debug bool) (*slog.Logger, io.Closer, error) {
	level := cfg.Level
	if debug {
		level = "debug"
	}
	return logging.Configure(logging.Options{
		Level:  level,
		Format: cfg.Format,
		File:   cfg.File,
	})
}

// Stores bundles the configured SaveStore with an optional shared locker.
type Stores struct {
	Saves  ports.SaveStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases connections held by the stores.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects the save store selected by cfg.Kind. Redis stores also
// provide a distributed locker on the same client. Masking and encryption
// are layered on top when configured.
func OpenStores(ctx context.Context, cfg config.StoreConfig) (*Stores, error) {
	stores, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.MaskKeys) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.MaskKeys)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		mws = append(mws, mw)
	}
	key, err := cfg.Key()
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	if key != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		mws = append(mws, mw)
	}
	stores.Saves = middleware.Chain(stores.Saves, mws...)
	return stores, nil
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (*Stores, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return &Stores{Saves: memory.NewStore()}, nil
	case config.StoreFile, "":
		return &Stores{Saves: file.New(cfg.SavesDir)}, nil
	case config.StoreRedis:
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.TTL))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Client().Ping(pingCtx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return &Stores{
			Saves:  store,
			Locker: redis.NewLocker(store.Client(), "bardic:lock:"),
			close:  store.Close,
		}, nil
	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Stores{Saves: store, close: store.Close}, nil
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

// EngineOptions translates configuration into engine options.
func EngineOptions(cfg config.EngineConfig, logger *slog.Logger, hooks ...domain.LifecycleHooks) []runtime.EngineOption {
	opts := []runtime.EngineOption{
		runtime.WithLogger(logger),
		runtime.WithReplayOnLoad(cfg.ReplayOnLoad),
		runtime.WithDirectiveEvaluation(cfg.EvaluateDirectives),
	}
	all := append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)
	return append(opts, runtime.WithLifecycleHooks(observability.Combine(all...)))
}
