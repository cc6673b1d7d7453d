package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/logging"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/telemetry"
	"catalog/pkg/rabbitmq"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:          "catalog",
		Short:        "Product catalog service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), envFile)
		},
	})
	rootCmd.AddCommand(newTokenCmd(&envFile))

	return rootCmd
}

func newTokenCmd(envFile *string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the product write routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET must be set to issue tokens")
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}

			token, err := services.NewTokenService(cfg.JWTSecret, ttl).IssueToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to TOKEN_TTL")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func serve(parent context.Context, envFile string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Configuration ---
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Env: cfg.AppEnv})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// --- Tracing ---
	tp, err := telemetry.InitTracer(ctx, telemetry.TracingConfig{
		ServiceName: "catalog",
		Environment: cfg.AppEnv,
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	// --- Database ---
	db, err := repositories.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	defer sqlDB.Close()

	deps := dependencies{
		cfg:    cfg,
		logger: logger,
		db:     db,
		checks: map[string]healthCheck{"database": sqlDB.PingContext},
	}

	// --- Listing cache ---
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		deps.cache = cache.NewRedisCache(rdb, cfg.CacheTTL, logger)
		deps.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		deps.cache = cache.NewMemoryCache(cfg.CacheTTL)
	}

	// --- Event broker ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			return err
		}
		defer mqClient.Close()
		deps.sinks = append(deps.sinks, telemetry.NewBrokerSink(mqClient, logger))
		logger.Info("Publishing pipeline events", zap.String("exchange", cfg.RabbitMQExchange))
	}

	app := newApp(deps)

	// --- Start HTTP Server ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.AppPort))
		errCh <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("Error during Fiber shutdown", zap.Error(err))
	}
	logger.Info("Server gracefully stopped")
	return nil
}
