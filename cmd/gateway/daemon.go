package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sermir2003/stoilo/internal/blobstore"
	"github.com/sermir2003/stoilo/internal/config"
	"github.com/sermir2003/stoilo/internal/gateway"
	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/metrics"
	"github.com/sermir2003/stoilo/internal/observability"
	"github.com/sermir2003/stoilo/internal/pollcache"
	"github.com/sermir2003/stoilo/internal/store"
	"github.com/sermir2003/stoilo/internal/worklauncher"
)

func daemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the Task Gateway gRPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configFile != "" {
				var err error
				cfg, err = config.LoadFromFile(configFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			}
			config.LoadGatewayEnv(cfg)

			logging.SetLevelFromString(cfg.Logging.Level)
			logging.InitStructured(cfg.Logging.Format, cfg.Logging.Level)

			ctx := context.Background()
			if err := observability.Init(ctx, observability.Config{
				Enabled:     cfg.Tracing.Enabled,
				Endpoint:    cfg.Tracing.Endpoint,
				ServiceName: "stoilo-gateway",
				SampleRate:  cfg.Tracing.SampleRate,
			}); err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer observability.Shutdown(context.Background())

			m := metrics.New("stoilo_gateway")

			var storeOpts []store.Option
			if cfg.Blob.Bucket != "" {
				overflow, err := blobstore.NewS3Overflow(ctx, cfg.Blob.Bucket)
				if err != nil {
					return fmt.Errorf("init blob overflow: %w", err)
				}
				storeOpts = append(storeOpts, store.WithBlobOverflow(overflow, cfg.Blob.ThresholdBytes))
				logging.Op().Info("blob overflow enabled", "bucket", cfg.Blob.Bucket, "threshold_bytes", cfg.Blob.ThresholdBytes)
			}

			pgStore, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN, cfg.Task.PoolSize, storeOpts...)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pgStore.Close()

			var cache *pollcache.Cache
			if cfg.Redis.Addr != "" {
				cache = pollcache.New(pollcache.Config{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer cache.Close()
				logging.Op().Info("poll cache enabled", "addr", cfg.Redis.Addr)
			}

			manifest, err := worklauncher.LoadManifest(cfg.Flavor.Path)
			if err != nil {
				return fmt.Errorf("load flavor manifest: %w", err)
			}
			launcher := worklauncher.New(cfg.Task.ProjectDir, "", manifest)

			server := gateway.New(pgStore, launcher, m, cache)
			addr := fmt.Sprintf("%s:%s", cfg.Task.Host, cfg.Task.Port)
			if err := server.Start(addr); err != nil {
				return fmt.Errorf("start task gateway: %w", err)
			}
			logging.Op().Info("Task Gateway started", "addr", addr)

			var httpServer *http.Server
			if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", m.Handler())
				mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(`{"status":"ok","service":"stoilo-gateway"}`))
				})
				httpServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
				go func() {
					logging.Op().Info("metrics endpoint started", "addr", cfg.Metrics.Addr)
					if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logging.Op().Error("metrics server error", "error", err)
					}
				}()
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			logging.Op().Info("shutdown signal received")

			server.Stop()
			if httpServer != nil {
				httpServer.Shutdown(context.Background())
			}
			return nil
		},
	}
	return cmd
}
