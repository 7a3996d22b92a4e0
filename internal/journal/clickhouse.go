package journal

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS token_account_plans (
	plan_id       String,
	source        LowCardinality(String),
	owner         String,
	mint          String,
	address       String,
	token_program LowCardinality(String),
	strategy      LowCardinality(String),
	created       Bool,
	setup_ixs     UInt16,
	cleanup_ixs   UInt16,
	signers       UInt16,
	resolved_at   DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (owner, resolved_at)
`

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

type ClickHouseSink struct {
	conn   driver.Conn
	logger *logrus.Logger
}

// NewClickHouseSink connects to ClickHouse and creates the plans table.
func NewClickHouseSink(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseSink, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, createTableSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create journal table: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse journal")

	return &ClickHouseSink{conn: conn, logger: cfg.Logger}, nil
}

func (s *ClickHouseSink) Write(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO token_account_plans")
	if err != nil {
		return fmt.Errorf("prepare journal batch: %w", err)
	}

	for _, e := range entries {
		if err := batch.Append(
			e.PlanID,
			e.Source,
			e.Owner,
			e.Mint,
			e.Address,
			e.TokenProgram,
			e.Strategy,
			e.Created,
			e.SetupIxs,
			e.CleanupIxs,
			e.Signers,
			e.ResolvedAt,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append journal entry: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send journal batch: %w", err)
	}
	return nil
}

// CountByOwner returns how many plans were journaled for owner.
func (s *ClickHouseSink) CountByOwner(ctx context.Context, owner string) (uint64, error) {
	var n uint64
	row := s.conn.QueryRow(ctx, "SELECT count() FROM token_account_plans WHERE owner = ?", owner)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}
