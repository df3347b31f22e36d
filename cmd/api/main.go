package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nextwallet-vault/internal/application/notification"
	"github.com/nextwallet-vault/internal/application/stepup"
	"github.com/nextwallet-vault/internal/config"
	"github.com/nextwallet-vault/internal/infrastructure/dynamo"
	jwtinfra "github.com/nextwallet-vault/internal/infrastructure/jwt"
	"github.com/nextwallet-vault/internal/infrastructure/localstate"
	"github.com/nextwallet-vault/internal/infrastructure/memory"
	"github.com/nextwallet-vault/internal/infrastructure/pg"
	redisinfra "github.com/nextwallet-vault/internal/infrastructure/redis"
	"github.com/nextwallet-vault/internal/infrastructure/smtp"
	"github.com/nextwallet-vault/internal/infrastructure/sns"
	transporthttp "github.com/nextwallet-vault/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dynamo client: %w", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, cfg.RecordStore == "dynamo")

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo: dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		WalletRepo:  dynamo.NewWalletRepo(dynamoClient, cfg.DynamoTables.Wallets),
		Platform:    stepup.StaticPlatform(cfg.BiometricAvailable),
		Probes: map[string]transporthttp.Probe{
			"dynamo": dynamo.Probe(dynamoClient, cfg.DynamoTables.Sessions),
		},
	}

	switch cfg.RecordStore {
	case "dynamo":
		deps.LedgerRepo = dynamo.NewLedgerRepo(dynamoClient, cfg.DynamoTables.OTPLedger)
		deps.PinRepo = dynamo.NewPinRepo(dynamoClient, cfg.DynamoTables.Pins)
	case "postgres":
		pool, err := pg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool); err != nil {
			return err
		}
		deps.Probes["postgres"] = pool.Ping
		deps.LedgerRepo = pg.NewLedgerRepo(pool)
		deps.PinRepo = pg.NewPinRepo(pool)
	case "memory":
		slog.Warn("using in-memory ledger and pin store; nothing survives a restart")
		deps.LedgerRepo = memory.NewLedgerRepo()
		deps.PinRepo = memory.NewPinRepo()
	default:
		return fmt.Errorf("unknown RECORD_STORE %q", cfg.RecordStore)
	}

	// Attempt counters: Redis when configured, in-process otherwise.
	deps.Attempts = memory.NewAttemptCounter(time.Now)
	if cfg.RedisAddr != "" {
		if rdb, err := redisinfra.NewClient(ctx, cfg); err == nil {
			defer rdb.Close()
			deps.Attempts = redisinfra.NewAttemptCounter(rdb, "vault")
			deps.Probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		} else {
			slog.Warn("redis unavailable, attempt counters are per-process", "err", err)
		}
	}

	local, err := localstate.Open(cfg.LocalStatePath, time.Now)
	if err != nil {
		return err
	}
	defer local.Close()
	deps.LocalState = local

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}
	deps.JWTProvider = jwtProvider

	hasher, err := stepup.NewHasher(cfg.PinHasher)
	if err != nil {
		return err
	}
	if cfg.PinHasher == "plain" {
		slog.Warn("PIN_HASHER=plain stores PINs unhashed")
	}
	deps.PinHasher = hasher

	deps.Mailer = smtp.NewMailer(cfg)

	// SNS publisher (optional, graceful fallback).
	var notifyDeps notification.ServiceDeps
	if pub, err := sns.NewPublisher(ctx, cfg); err == nil {
		notifyDeps.Publisher = pub
	} else {
		slog.Warn("verification events will not be published", "err", err)
	}
	notifier := notification.NewService(notifyDeps)
	deps.Notifier = notifier

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "record_store", cfg.RecordStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	notifier.Wait()
	slog.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
