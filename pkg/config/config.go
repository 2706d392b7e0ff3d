package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Solana RPC
	HeliusAPIKey string
	RPCURL       string
	FeedAddress  string // address whose signature feed seeds the corpus; system program by default

	// Fetch phase
	FetchLimit     int // total transactions to pull per run; 0 disables fetching
	FetchBatchSize int
	FetchWorkers   int
	FetchPause     time.Duration

	// Aggregation
	NormalizeLimit   int // most recent stored transactions fed into the aggregator
	AggregatorShards int

	// Output
	OutputCSV     string
	TableRows     int // rows rendered to the console, 0 disables
	DashboardPort int // 0 disables the dashboard

	// Scheduling
	ScanCron string // cron spec for periodic re-runs; empty = one-shot

	// DB
	DBPath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HeliusAPIKey: os.Getenv("HELIUS_API_KEY"),
		RPCURL:       envOr("SOLANA_RPC_URL", "https://mainnet.helius-rpc.com"),
		FeedAddress:  os.Getenv("FEED_ADDRESS"),

		FetchLimit:     envInt("FETCH_LIMIT", 0),
		FetchBatchSize: envInt("FETCH_BATCH_SIZE", 50),
		FetchWorkers:   envInt("FETCH_WORKERS", 4),
		FetchPause:     time.Duration(envInt("FETCH_PAUSE_MS", 2000)) * time.Millisecond,

		NormalizeLimit:   envInt("NORMALIZE_LIMIT", 10000),
		AggregatorShards: envInt("AGGREGATOR_SHARDS", 4),

		OutputCSV:     envOr("OUTPUT_CSV", "wallet_archetypes.csv"),
		TableRows:     envInt("TABLE_ROWS", 20),
		DashboardPort: envInt("DASHBOARD_PORT", 0),

		ScanCron: os.Getenv("SCAN_CRON"),

		DBPath: envOr("DB_PATH", "wallets.db"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.FetchLimit > 0 && c.HeliusAPIKey == "" && c.RPCURL == "" {
		return fmt.Errorf("fetching enabled but no RPC configured — set HELIUS_API_KEY or SOLANA_RPC_URL")
	}
	if c.AggregatorShards < 1 {
		return fmt.Errorf("AGGREGATOR_SHARDS must be >= 1, got %d", c.AggregatorShards)
	}
	if c.FetchBatchSize < 1 {
		return fmt.Errorf("FETCH_BATCH_SIZE must be >= 1, got %d", c.FetchBatchSize)
	}
	return nil
}

// --- Static classification tables ---
// Versioned configuration data, not runtime-derived. The aggregator and the
// ratio calculator receive these explicitly.

type Category string

const (
	CategoryDefi         Category = "defi"
	CategoryBot          Category = "bot"
	CategorySystem       Category = "system"
	CategoryRetail       Category = "retail"
	CategoryUnclassified Category = "unclassified"
)

// DefiPrograms holds name fragments of known DeFi programs. A transfer whose
// destination contains one of these (case-insensitive) counts as DeFi activity.
var DefiPrograms = []string{
	"Raydium", "Jupiter", "Orca", "Meteora", "Marginfi",
	"Lifinity", "Saber", "Marinade", "Kamino", "Drift",
}

// TypeCategories maps instruction type labels to coarse activity categories.
// Labels missing here fall into CategoryUnclassified.
var TypeCategories = map[string]Category{
	// Retail / normal
	"system:transfer": CategoryRetail,

	// Bot / automation
	"system:advanceNonce":                    CategoryBot,
	"address-lookup-table:createLookupTable": CategoryBot,
	"address-lookup-table:extendLookupTable": CategoryBot,

	// System / infrastructure
	"system:createAccount":                          CategorySystem,
	"system:createAccountWithSeed":                  CategorySystem,
	"spl-associated-token-account:create":           CategorySystem,
	"spl-associated-token-account:createIdempotent": CategorySystem,
	"spl-token:closeAccount":                        CategorySystem,

	// DeFi / fungible operations
	"spl-token:transfer":        CategoryDefi,
	"spl-token:transferChecked": CategoryDefi,
	"spl-token:mintTo":          CategoryDefi,
	"spl-token:burn":            CategoryDefi,
	"spl-token:approve":         CategoryDefi,
	"spl-token:approveChecked":  CategoryDefi,

	"unknown": CategoryUnclassified,
}

// CategoryOf resolves a type label, defaulting to unclassified.
func CategoryOf(typeLabel string) Category {
	if c, ok := TypeCategories[typeLabel]; ok {
		return c
	}
	return CategoryUnclassified
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
