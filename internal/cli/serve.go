package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/bardic/internal/config"
	"github.com/aretw0/bardic/pkg/adapters/file"
	bardichttp "github.com/aretw0/bardic/pkg/adapters/http"
	"github.com/aretw0/bardic/pkg/observability"
	"github.com/aretw0/bardic/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	StoriesDir string
	Config     config.Config
	Logger     *slog.Logger
}

// App is the wired HTTP application.
type App struct {
	Handler  http.Handler
	Sessions *session.Manager
	Registry *prometheus.Registry
	stores   *Stores
}

// NewApp wires stories, saves, sessions, metrics and routes.
func NewApp(ctx context.Context, opts ServeOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stores, err := OpenStores(ctx, opts.Config.Store)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	streams := bardichttp.NewStreamManager(logger)
	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithEngineOptions(EngineOptions(opts.Config.Engine, logger, metrics.Hooks())...),
		session.WithChangeListener(streams.BroadcastDiff),
	}
	if stores.Locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(stores.Locker, 30*time.Second))
	}

	loader := file.NewLoader(opts.StoriesDir, file.WithLoaderLogger(logger))
	sessions := session.NewManager(loader, stores.Saves, sessOpts...)

	httpOpts := []bardichttp.Option{
		bardichttp.WithLogger(logger),
		bardichttp.WithStreams(streams),
		bardichttp.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	}
	if opts.Config.Server.ValidateRequests {
		httpOpts = append(httpOpts, bardichttp.WithRequestValidation())
	}
	handler := bardichttp.NewHandler(sessions, httpOpts...)
	return &App{Handler: handler, Sessions: sessions, Registry: reg, stores: stores}, nil
}

// Close releases the stores.
func (a *App) Close() error {
	return a.stores.Close()
}

// Serve runs the HTTP server until ctx is cancelled, pruning idle sessions
// in the background.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              opts.Config.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if idle := opts.Config.Server.SessionIdle; idle > 0 {
		go pruneLoop(ctx, app.Sessions, idle, logger)
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting bardic server", "addr", srv.Addr, "stories", opts.StoriesDir, "store", opts.Config.Store.Kind)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down server")
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}

func pruneLoop(ctx context.Context, sessions *session.Manager, idle time.Duration, logger *slog.Logger) {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(ctx, idle); n > 0 {
				logger.Info("pruned idle sessions", "count", n)
			}
		}
	}
}
