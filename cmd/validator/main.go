package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sermir2003/stoilo/internal/config"
	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/store"
	"github.com/sermir2003/stoilo/internal/validatorlib"
)

// validatorRuntime builds the Runtime that evaluates predicate blobs.
// The interpreter binary is co-deployed alongside the worker and named
// by STOILO_PREDICATE_RUNTIME — the broker itself never interprets
// call_spec or predicate payloads (spec.md §9).
func validatorRuntime() validatorlib.Runtime {
	bin := os.Getenv("STOILO_PREDICATE_RUNTIME")
	if bin == "" {
		logging.Op().Error("STOILO_PREDICATE_RUNTIME is not set; cannot evaluate predicates")
		os.Exit(int(validatorlib.ExitOtherError))
	}
	return validatorlib.NewSubprocessRuntime(bin, "")
}

// main is the VCH-invoked validator binary (spec.md §4.5). It is a
// one-shot process: the VCH daemon forks one invocation per result
// file and reads the exit code, so there is no server loop here.
func main() {
	rootCmd := &cobra.Command{
		Use:                "validator",
		Short:              "Result Validator",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := validatorlib.ParseArgs(args)
			if err != nil {
				return fmt.Errorf("parse arguments: %w", err)
			}

			cfg := config.DefaultConfig()
			config.LoadStoreEnv(cfg)
			logging.SetLevelFromString(cfg.Logging.Level)
			logging.InitStructured(cfg.Logging.Format, cfg.Logging.Level)

			ctx := context.Background()
			pgStore, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN, 1)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pgStore.Close()

			v := validatorlib.New(pgStore, validatorRuntime())
			os.Exit(int(v.Run(ctx, parsed)))
			return nil
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(validatorlib.ExitOtherError))
	}
}
