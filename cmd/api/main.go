package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/cache"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/chainreader"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/config"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/journal"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/profiles"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/rpc"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/server"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It wires the chain reader, rent cache, profiles and journal, then serves
// HTTP until SIGINT or SIGTERM.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.DevMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Commitment:   cfg.RPCCommitment,
		Logger:       logger,
	})
	reader := chainreader.New(rpcClient, chainreader.Config{
		ChunkSize:   cfg.FetchChunkSize,
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
	})

	// Redis backs the rent cache, resolver profiles and plan events
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	defer rclient.Close()
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	rent, err := cache.NewRentCache(rclient, reader.RentExemption, cache.RentCacheConfig{
		TTL:    cfg.RentCacheTTL,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create rent cache")
	}

	profileStore, err := profiles.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create profile store")
	}

	publisher, err := journal.NewPublisher(rclient, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create plan publisher")
	}
	sinks := []journal.Sink{publisher}

	// ClickHouse is optional; the API keeps serving without an audit table
	if cfg.JournalEnabled {
		ch, err := journal.NewClickHouseSink(ctx, journal.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Warn("clickhouse journal disabled")
		} else {
			sinks = append(sinks, ch)
		}
	}
	plans := journal.New(logger, sinks...)
	defer func() {
		if err := plans.Close(); err != nil {
			logger.WithError(err).Warn("journal close failed")
		}
	}()

	h := &server.Handlers{
		Fetcher:  reader,
		Rent:     rent.RentExemption,
		Defaults: cfg.Resolver,
		Profiles: profileStore,
		Journal:  plans,
		DevMode:  cfg.DevMode,
		Logger:   logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:      cfg.APIAddr,
			DevMode:   cfg.DevMode,
			APIKey:    cfg.APIKey,
			RateRPS:   cfg.RateRPS,
			RateBurst: cfg.RateBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":     cfg.APIAddr,
		"rpc":      cfg.RPCUrl,
		"strategy": cfg.Resolver.DefaultStrategy,
		"journal":  len(sinks),
	}).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("server did not close cleanly")
	}
}
