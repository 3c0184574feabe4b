package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/knet/internal/api"
	"github.com/Harshitk-cp/knet/internal/buildconfig"
	"github.com/Harshitk-cp/knet/internal/config"
	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/llm"
	"github.com/Harshitk-cp/knet/internal/service"
	"github.com/Harshitk-cp/knet/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	limiterSweep      = time.Minute
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	graphStore, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		Path:        cfg.StorePath,
		Backups:     cfg.StoreBackups,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if c, ok := graphStore.(store.Closer); ok {
		defer c.Close()
	}
	if fs, ok := graphStore.(*store.FileStore); ok {
		logger.Info("file store opened", zap.String("path", fs.Path()))
	}

	g, err := service.LoadGraph(ctx, graphStore)
	if err != nil {
		return err
	}
	logger.Info("knowledge network loaded",
		zap.String("driver", cfg.StoreDriver),
		zap.Int("statements", g.Len()))

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}

	app := api.NewApp(cfg, g, graphStore, gen, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           app.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		info := buildconfig.Get()
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("version", info.Version),
			zap.String("commit", info.Commit))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		app.RateLimiter.Run(egCtx, limiterSweep)
		return nil
	})

	if cfg.AutosaveInterval > 0 {
		eg.Go(func() error {
			autosave(egCtx, app.Statements, cfg.AutosaveInterval, logger)
			return nil
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
		if err := app.Statements.Save(shutdownCtx); err != nil {
			logger.Error("final save failed", zap.Error(err))
			return err
		}
		return nil
	})

	return eg.Wait()
}

// newGenerator builds the configured theory generator. Remote providers are
// wrapped in a circuit breaker.
func newGenerator(cfg *config.Config, logger *zap.Logger) (domain.TheoryGenerator, error) {
	gen, err := llm.NewClient(cfg.LLMProvider, cfg.LLMAPIKey(), cfg.LLMTimeout)
	if err != nil {
		return nil, err
	}
	logger.Info("theory generator ready", zap.String("provider", cfg.LLMProvider))
	if cfg.LLMProvider == llm.ProviderMock {
		return gen, nil
	}
	return llm.NewBreakerGenerator(gen, llm.DefaultBreakerConfig(cfg.LLMProvider), logger), nil
}

func autosave(ctx context.Context, statements *service.StatementService, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := statements.Save(ctx); err != nil {
				logger.Warn("autosave failed", zap.Error(err))
			}
		}
	}
}
