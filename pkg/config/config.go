package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canopy-network/stakewatch/pkg/utils"
)

// Config is the resolved runtime configuration for the watcher.
// It merges built-in defaults, an optional watchlist file, and environment
// overrides, in that order.
type Config struct {
	// Endpoints are the chain RPC base URLs, tried in order.
	Endpoints []string
	// CreatorAddress marks the account flagged isCreator. Empty disables the flag.
	CreatorAddress string
	// TokenLocale picks the decimal separator for formatted balances.
	TokenLocale string
	// RefreshSpec is the cron expression (with seconds) driving refresh cycles.
	RefreshSpec string
	// MaxParallel bounds concurrent session refreshes. Zero picks a CPU-based default.
	MaxParallel int
	// Addr is the HTTP listen address.
	Addr string
	// Accounts are addresses watched from boot, before any wallet connects.
	Accounts []string
	// RedisEnabled turns on the wallet event feed and snapshot/notification fan-out.
	RedisEnabled bool
	// HistoryEnabled turns on the ClickHouse snapshot archive.
	HistoryEnabled bool
}

// configFile mirrors the watchlist file schema.
type configFile struct {
	CreatorAddress string `yaml:"creator_address"`
	Token          struct {
		Locale string `yaml:"locale"`
	} `yaml:"token"`
	Chain struct {
		Endpoints []string `yaml:"endpoints"`
	} `yaml:"chain"`
	Refresh struct {
		Schedule    string `yaml:"schedule"`
		MaxParallel int    `yaml:"max_parallel"`
	} `yaml:"refresh"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Redis struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"clickhouse"`
	Accounts []string `yaml:"accounts"`
}

// Load resolves configuration in priority order: defaults -> file -> env.
// path is usually the WATCHLIST_FILE env value; an unreadable path is treated
// as absent so the watcher still boots from env alone.
func Load(path string) (Config, error) {
	cfg := Config{
		Endpoints:   []string{"http://localhost:50002"},
		TokenLocale: "en",
		RefreshSpec: "*/30 * * * * *",
		Addr:        ":3003",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			var f configFile
			if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
				return Config{}, fmt.Errorf("parse watchlist file %s: %w", path, unmarshalErr)
			}
			if f.CreatorAddress != "" {
				cfg.CreatorAddress = f.CreatorAddress
			}
			if f.Token.Locale != "" {
				cfg.TokenLocale = f.Token.Locale
			}
			if len(f.Chain.Endpoints) > 0 {
				cfg.Endpoints = f.Chain.Endpoints
			}
			if f.Refresh.Schedule != "" {
				cfg.RefreshSpec = f.Refresh.Schedule
			}
			if f.Refresh.MaxParallel > 0 {
				cfg.MaxParallel = f.Refresh.MaxParallel
			}
			if f.Server.Addr != "" {
				cfg.Addr = f.Server.Addr
			}
			cfg.RedisEnabled = f.Redis.Enabled
			cfg.HistoryEnabled = f.ClickHouse.Enabled
			if len(f.Accounts) > 0 {
				cfg.Accounts = f.Accounts
			}
		}
	}

	cfg.Endpoints = envCSV("RPC_ENDPOINTS", cfg.Endpoints)
	cfg.CreatorAddress = utils.Env("CREATOR_ADDRESS", cfg.CreatorAddress)
	cfg.TokenLocale = utils.Env("TOKEN_LOCALE", cfg.TokenLocale)
	cfg.RefreshSpec = utils.Env("REFRESH_SCHEDULE", cfg.RefreshSpec)
	cfg.MaxParallel = utils.EnvInt("REFRESH_MAX_PARALLEL", cfg.MaxParallel)
	cfg.Addr = utils.Env("ADDR", cfg.Addr)
	cfg.Accounts = envCSV("WATCHLIST", cfg.Accounts)
	cfg.RedisEnabled = utils.EnvBool("REDIS_ENABLED", cfg.RedisEnabled)
	cfg.HistoryEnabled = utils.EnvBool("CLICKHOUSE_ENABLED", cfg.HistoryEnabled)

	if len(cfg.Endpoints) == 0 {
		return Config{}, fmt.Errorf("no chain RPC endpoints configured")
	}

	return cfg, nil
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
