// Package config loads stoilo's process configuration the way nova's
// internal/config does: a struct tree with defaults, optionally
// overridden by a JSON file, then by environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sermir2003/stoilo/internal/logging"
)

// PostgresConfig holds Store connection settings.
type PostgresConfig struct {
	DSN string `json:"dsn"`
}

// TaskServiceConfig holds Task Gateway listen settings, mirroring the
// PROJECT_DIR/TASK_SERVICE_* environment variables spec.md §6 requires.
type TaskServiceConfig struct {
	Host      string `json:"host"`
	Port      string `json:"port"`
	PoolSize  int    `json:"pool_size"`
	ProjectDir string `json:"project_dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled         bool   `json:"enabled"`
	Addr            string `json:"addr"`
	PushGatewayAddr string `json:"pushgateway_addr"` // the one-shot Assimilator CLI pushes here instead of serving /metrics
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled    bool    `json:"enabled"`
	Endpoint   string  `json:"endpoint"`
	SampleRate float64 `json:"sample_rate"`
}

// RedisConfig holds the optional PollTask read-through cache settings.
// Addr == "" disables the cache.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// BlobStoreConfig holds the optional S3 blob-overflow settings. Bucket
// == "" keeps every blob inline in Postgres.
type BlobStoreConfig struct {
	Bucket         string `json:"bucket"`
	ThresholdBytes int64  `json:"threshold_bytes"`
}

// FlavorManifestConfig points at the YAML flavor -> VCH template
// manifest (spec_full §3.2). Path == "" uses the single built-in
// "default" entry matching original_source's hardcoded values.
type FlavorManifestConfig struct {
	Path string `json:"path"`
}

// Config is the full process configuration tree, shared by the Gateway;
// the one-shot Validator/Assimilator CLIs never serve traffic. The
// Validator uses only Postgres+Logging and reads the rest of its
// environment directly; the Assimilator also applies LoadAmbientEnv for
// its logging and Pushgateway settings.
type Config struct {
	Postgres PostgresConfig       `json:"postgres"`
	Task     TaskServiceConfig    `json:"task_service"`
	Logging  LoggingConfig        `json:"logging"`
	Metrics  MetricsConfig        `json:"metrics"`
	Tracing  TracingConfig        `json:"tracing"`
	Redis    RedisConfig          `json:"redis"`
	Blob     BlobStoreConfig      `json:"blob"`
	Flavor   FlavorManifestConfig `json:"flavor"`
}

// DefaultConfig returns the zero-configuration baseline: no cache, no
// blob overflow, text logging at info level, metrics on loopback.
func DefaultConfig() *Config {
	return &Config{
		Task: TaskServiceConfig{
			Host:     "0.0.0.0",
			Port:     "7777",
			PoolSize: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9090",
		},
		Blob: BlobStoreConfig{
			ThresholdBytes: 16 << 20, // 16 MiB
		},
	}
}

// LoadFromFile loads configuration from a JSON file, starting from
// DefaultConfig so an unset field in the file keeps its default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustGetenv reads a required environment variable or terminates the
// process, the Go equivalent of original_source's get_env_or_die.
// Spec.md §6: "Absence of any is a fatal startup error."
func MustGetenv(name string) string {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		logging.Op().Error("missing required environment variable", "name", name)
		os.Exit(1)
	}
	return v
}

// LoadStoreEnv populates the Postgres settings from the DB_* environment
// variables spec.md §6 names; the Task-service settings are left to
// LoadGatewayEnv. It fatals on any missing variable, matching the
// original's get_env_or_die for every field.
func LoadStoreEnv(cfg *Config) {
	host := MustGetenv("DB_HOST")
	port := MustGetenv("DB_PORT")
	user := MustGetenv("DB_USER")
	pass := MustGetenv("DB_PASSWORD")
	name := MustGetenv("DB_NAME")
	cfg.Postgres.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
}

// LoadGatewayEnv populates the full Gateway-only settings (pool size,
// bind host/port, project dir) from the environment, fataling on any
// missing required variable per spec.md §6.
func LoadGatewayEnv(cfg *Config) {
	LoadStoreEnv(cfg)

	poolSize, err := strconv.Atoi(MustGetenv("TASK_SERVICE_POOL_SIZE"))
	if err != nil {
		logging.Op().Error("TASK_SERVICE_POOL_SIZE must be an integer", "error", err)
		os.Exit(1)
	}
	cfg.Task.PoolSize = poolSize
	cfg.Task.Host = MustGetenv("TASK_SERVICE_HOST")
	cfg.Task.Port = MustGetenv("TASK_SERVICE_PORT")
	cfg.Task.ProjectDir = MustGetenv("PROJECT_DIR")

	LoadAmbientEnv(cfg)
}

// LoadAmbientEnv applies the optional ambient overrides (logging,
// metrics, tracing, cache, blob overflow, flavor manifest) that are not
// part of spec.md's required environment but are part of the ambient
// stack this repo carries regardless (SPEC_FULL §2.1).
func LoadAmbientEnv(cfg *Config) {
	if v := os.Getenv("STOILO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STOILO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("STOILO_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("STOILO_METRICS_PUSHGATEWAY_ADDR"); v != "" {
		cfg.Metrics.PushGatewayAddr = v
	}
	if v := os.Getenv("STOILO_TRACING_ENABLED"); v != "" {
		cfg.Tracing.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("STOILO_TRACING_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
	}
	if v := os.Getenv("STOILO_TRACING_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracing.SampleRate = f
		}
	}
	if v := os.Getenv("STOILO_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("STOILO_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("STOILO_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("STOILO_BLOB_S3_BUCKET"); v != "" {
		cfg.Blob.Bucket = v
	}
	if v := os.Getenv("STOILO_BLOB_S3_THRESHOLD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Blob.ThresholdBytes = n
		}
	}
	if v := os.Getenv("STOILO_FLAVOR_MANIFEST"); v != "" {
		cfg.Flavor.Path = v
	}
}
