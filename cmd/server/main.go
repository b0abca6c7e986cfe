package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/config"
	"newsdesk-sections/internal/db"
	httpapi "newsdesk-sections/internal/http"
	"newsdesk-sections/internal/logging"
	"newsdesk-sections/internal/migrations"
	"newsdesk-sections/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, cleanupLogs, err := logging.New(logging.Options{
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
		Level:         cfg.LogLevel,
	})
	if err != nil {
		logger.Warn("log file disabled", zap.Error(err))
	}
	defer cleanupLogs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	metrics := services.NewMetrics()
	backend := articles.NewClient(articles.Config{
		BaseURL:  cfg.ArticlesAPIURL,
		Timeout:  cfg.ArticlesTimeout,
		CacheTTL: cfg.ArticleCacheTTL,
		Observe:  metrics.ObserveUpstream,
	})

	hub := services.NewChangeHub()
	go hub.Run(ctx)

	server, err := httpapi.NewServer(cfg, store, backend, hub, metrics, logger)
	if err != nil {
		logger.Fatal("server setup", zap.Error(err))
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	logger.Info("shutdown complete")
}

// openStore connects to Postgres and migrates it. Without DATABASE_URL the
// sections live in memory and are lost on restart.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.Store, func()) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, sections are kept in memory only")
		return services.NewMemoryStore(), func() {}
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	applied, err := migrations.Apply(database, migrations.Embedded())
	if err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}
	for _, name := range applied {
		logger.Info("migration applied", zap.String("file", name))
	}
	return services.NewPostgresStore(database, logger), func() { _ = database.Close() }
}
