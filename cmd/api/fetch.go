package main

import (
	"context"
	"fmt"
	"time"

	"balance-monitor/config"
	redisStorage "balance-monitor/internal/adapter/storage/redis"
	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/service"
	"balance-monitor/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func fetchCmd(cfg func() *config.Config) *cobra.Command {
	var fromRedis bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Refresh the balance once and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromRedis {
				return runFetchPublished(cmd, cfg())
			}
			return runFetchOnce(cmd, cfg())
		},
	}
	cmd.Flags().BoolVar(&fromRedis, "from-redis", false, "print the last snapshot a running server published instead of fetching")
	return cmd
}

// runFetchPublished prints the latest snapshot stored by a server's state
// publisher without touching the balance source.
func runFetchPublished(cmd *cobra.Command, cfg *config.Config) error {
	log := logger.NewWithWriter(cfg.Log.Level, cmd.ErrOrStderr())
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Fetch.Timeout)
	defer cancel()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	publisher := redisStorage.NewStatePublisher(rdb, cfg.Publish.Channel, 1, log)
	msg, err := publisher.Latest(ctx)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("no balance snapshot published under %s", publisher.LatestKey())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, msg.FormattedBalance)
	fmt.Fprintln(out, msg.State.InfoText(domain.RelativeDateFormatter(time.Now)))
	fmt.Fprintf(out, "Published: %s\n", msg.PublishedAt.Format(time.RFC3339))
	return nil
}

// runFetchOnce drives a single refresh through the engine and prints the
// settled view. A failed fetch is reported as an error.
func runFetchOnce(cmd *cobra.Command, cfg *config.Config) error {
	log := logger.NewWithWriter(cfg.Log.Level, cmd.ErrOrStderr())
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Fetch.Timeout+time.Second)
	defer cancel()

	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer src.close()

	engine := service.NewBalanceEngine(src.fetcher, service.EngineOptions{FetchTimeout: cfg.Fetch.Timeout}, log)
	defer engine.Close()

	settled := make(chan domain.BalanceState, 1)
	unsubscribe := engine.Subscribe(func(state domain.BalanceState) {
		if state.IsRefreshing {
			return
		}
		select {
		case settled <- state:
		default:
		}
	})
	defer unsubscribe()

	// Drop the replayed resting state; only the refresh outcome matters.
	<-settled
	engine.Dispatch(domain.RefreshRequested())

	var state domain.BalanceState
	select {
	case state = <-settled:
	case <-ctx.Done():
		return fmt.Errorf("waiting for balance: %w", ctx.Err())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, state.FormattedBalance())
	fmt.Fprintln(out, state.InfoText(domain.RelativeDateFormatter(time.Now)))
	if state.DidFail {
		return fmt.Errorf("balance fetch from %s failed", src.fetcher.Name())
	}
	return nil
}

func setBalanceCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set-balance AMOUNT",
		Short: "Store a balance in the SQLite source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if c.Fetch.Source != config.SourceSQLite {
				return fmt.Errorf("set-balance needs fetch.source %q, got %q", config.SourceSQLite, c.Fetch.Source)
			}
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			log := logger.NewWithWriter(c.Log.Level, cmd.ErrOrStderr())
			repo, db, err := openSQLite(cmd.Context(), c, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repo.SetBalance(cmd.Context(), amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balance set to %s\n", amount.StringFixed(2))
			return nil
		},
	}
}
