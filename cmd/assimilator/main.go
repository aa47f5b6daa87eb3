package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sermir2003/stoilo/internal/assimilatorlib"
	"github.com/sermir2003/stoilo/internal/config"
	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/metrics"
	"github.com/sermir2003/stoilo/internal/store"
)

// main is the VCH-invoked assimilator binary (spec.md §4.4): one
// invocation per finished work unit, no retry, no server loop.
func main() {
	rootCmd := &cobra.Command{
		Use:                "assimilator",
		Short:              "Result Assimilator",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := assimilatorlib.ParseArgs(args)
			if err != nil {
				return fmt.Errorf("parse arguments: %w", err)
			}

			cfg := config.DefaultConfig()
			config.LoadStoreEnv(cfg)
			config.LoadAmbientEnv(cfg)
			logging.SetLevelFromString(cfg.Logging.Level)
			logging.InitStructured(cfg.Logging.Format, cfg.Logging.Level)

			ctx := context.Background()
			pgStore, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN, 1)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pgStore.Close()

			m := metrics.New("stoilo_assimilator")
			a := assimilatorlib.New(pgStore, m)
			exitCode := a.Run(ctx, parsed)
			if err := m.Push(cfg.Metrics.PushGatewayAddr, "stoilo_assimilator"); err != nil {
				logging.Op().Warn("failed to push metrics to pushgateway", "error", err)
			}
			os.Exit(exitCode)
			return nil
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
