package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
)

type Config struct {
	// RPC settings
	RPCUrl        string
	RPCCommitment string

	// Redis settings
	RedisAddr    string
	RentCacheTTL time.Duration

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
	JournalEnabled     bool

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Chain reader
	FetchChunkSize   int
	FetchConcurrency int

	// API server
	APIAddr   string
	APIKey    string
	DevMode   bool
	RateRPS   float64
	RateBurst int

	// Resolver defaults
	Resolver tokenaccount.Config

	// Wallet (CLI simulate only)
	WalletPrivateKey string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:        getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCCommitment: getEnv("RPC_COMMITMENT", "confirmed"),

		// Redis
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RentCacheTTL: getDurationEnv("RENT_CACHE_TTL", 10*time.Minute),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		JournalEnabled:     getBoolEnv("JOURNAL_ENABLED", false),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 0),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),

		// Reader
		FetchChunkSize:   getIntEnv("FETCH_CHUNK_SIZE", 100),
		FetchConcurrency: getIntEnv("FETCH_CONCURRENCY", 4),

		// API
		APIAddr:   getEnv("API_ADDR", ":8080"),
		APIKey:    getEnv("API_KEY", ""),
		DevMode:   getBoolEnv("DEV_MODE", false),
		RateRPS:   getFloatEnv("API_RATE_RPS", 20),
		RateBurst: getIntEnv("API_RATE_BURST", 40),

		// Resolver
		Resolver: tokenaccount.Config{
			Idempotent:         getBoolEnv("RESOLVER_IDEMPOTENT", false),
			AllowOffCurveOwner: getBoolEnv("RESOLVER_ALLOW_OFF_CURVE", false),
			DefaultStrategy:    tokenaccount.WrapStrategy(strings.TrimSpace(os.Getenv("RESOLVER_WRAP_STRATEGY"))),
		},

		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
	}
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCUrl) == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	switch c.RPCCommitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("RPC_COMMITMENT must be processed, confirmed or finalized, got %q", c.RPCCommitment)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	if c.FetchChunkSize <= 0 || c.FetchChunkSize > 100 {
		return fmt.Errorf("FETCH_CHUNK_SIZE must be in 1..100, got %d", c.FetchChunkSize)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be > 0")
	}
	if c.RateRPS <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("API_RATE_RPS and API_RATE_BURST must be > 0")
	}

	strategy, err := tokenaccount.ParseWrapStrategy(string(c.Resolver.DefaultStrategy))
	if err != nil {
		return fmt.Errorf("RESOLVER_WRAP_STRATEGY: %w", err)
	}
	c.Resolver.DefaultStrategy = strategy
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
