package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
	"classquiz-service/internal/config"
	"classquiz-service/internal/infra/memory"
	"classquiz-service/internal/infra/postgres"
	redisinfra "classquiz-service/internal/infra/redis"
	transport "classquiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type backends struct {
	store     app.Store
	reports   app.ReportReader
	blacklist app.TokenBlacklist
	feed      app.Feed
	closers   []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends picks Postgres and Redis when configured and falls back to
// the in-memory implementations otherwise.
func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { db.Close() })
		if err := db.PingContext(ctx); err != nil {
			b.close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := runMigrations(ctx, db, logger); err != nil {
			b.close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect pgx pool: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.store = postgres.NewStore(db)
		b.reports = postgres.NewReportReader(pool)
	} else {
		logger.Warn("postgres url not configured, using in-memory store")
		store := memory.NewStore()
		b.store, b.reports = store, store
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			b.close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.blacklist = redisinfra.NewTokenBlacklist(client)
		b.feed = redisinfra.NewFeed(client, logger)
	} else {
		logger.Warn("redis addr not configured, using in-memory blacklist and feed")
		b.blacklist = memory.NewTokenBlacklist()
		b.feed = memory.NewFeed()
	}
	return b, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	issuer := auth.NewTokenIssuer(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		config.TTLDuration(cfg.Auth.AccessTTL, 24*time.Hour),
		config.TTLDuration(cfg.Auth.RefreshTTL, 7*24*time.Hour),
	)
	opts := []app.Option{app.WithLogger(logger)}
	if cfg.Classes.CodeAttempts > 0 {
		opts = append(opts, app.WithCodeAttempts(cfg.Classes.CodeAttempts))
	}

	api := transport.NewServer(transport.Services{
		Accounts:   app.NewAccountService(b.store, issuer, b.blacklist, opts...),
		Classes:    app.NewClassService(b.store, opts...),
		Quizzes:    app.NewQuizService(b.store, opts...),
		Attempts:   app.NewAttemptService(b.store, b.reports, b.feed, opts...),
		Dashboards: app.NewDashboardService(b.store, opts...),
		Feed:       b.feed,
	}, logger)

	// No WriteTimeout: live feed connections are long-lived.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting classquiz service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
