package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/journal"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	owner string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream plans resolved by the API",
		Long: `Subscribe to the Redis channel the API publishes resolved plans on and
print each one until interrupted. --owner narrows the stream to one owner.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.owner, "owner", "", "only show plans for this owner")
	return cmd
}

func runWatch(rootOpts *RootOptions, opts *watchOptions, cmd *cobra.Command) error {
	f := formatter(rootOpts, cmd)

	if opts.owner != "" {
		if _, err := parseKey("owner", opts.owner); err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "invalid flags", err))
		}
	}
	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "configuration", err))
	}
	logger := newLogger(rootOpts.Verbose, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "connect to redis", err))
	}

	pub, err := journal.NewPublisher(client, logger)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "subscribe", err))
	}

	enc := json.NewEncoder(f.Writer)
	err = pub.Subscribe(ctx, opts.owner, func(e journal.Entry) {
		if f.Format == "json" {
			_ = enc.Encode(e)
			return
		}
		fmt.Fprintf(f.Writer, "%s %s %s -> %s [%s] created=%t setup=%d cleanup=%d\n",
			e.ResolvedAt.Format("15:04:05"), e.Owner, e.Mint, e.Address,
			e.Strategy, e.Created, e.SetupIxs, e.CleanupIxs)
	})
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "subscribe", err))
	}
	return nil
}
