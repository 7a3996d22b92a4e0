package cli

import (
	"io"
	"os"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/chainreader"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/config"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/rpc"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/wallet"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Backend is everything a command needs from the chain.
type Backend struct {
	Config  *config.Config
	Fetcher tokenaccount.AccountFetcher
	Rent    tokenaccount.FundingAmountProvider
	Tx      wallet.TxClient
	Logger  *logrus.Logger
}

func newLogger(verbose bool, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig reads the dotenv file, if present, then the environment.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := godotenv.Load(opts.EnvFile); err != nil {
				return nil, WrapExitError(ExitCommandError, "load env file", err)
			}
		}
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

func connectRPC(opts *RootOptions) (*Backend, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(opts.Verbose, os.Stderr)

	client := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Commitment:   cfg.RPCCommitment,
		Logger:       logger,
	})
	reader := chainreader.New(client, chainreader.Config{
		ChunkSize:   cfg.FetchChunkSize,
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
	})

	return &Backend{
		Config:  cfg,
		Fetcher: reader,
		Rent:    reader.RentExemption,
		Tx:      client,
		Logger:  logger,
	}, nil
}
