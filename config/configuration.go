package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
)

// Version is overridden at build time with -ldflags "-X .../config.Version=...".
var Version = "dev"

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type AppConfig struct {
	DevMode    bool   `arg:"--dev,env:DEV_MODE" default:"false"`
	Port       int    `arg:"-p,--port,env:LISTEN_PORT" default:"8005"`
	LogLevel   string `arg:"--log-level,env:LOG_LEVEL" default:"default" help:"Log level to use.  Valid values are: debug, info, and warn/warning.  If default the level will be info or debug in dev mode."`
	BaseURL    string `arg:"--base-url,env:BASE_URL" default:"http://localhost:8005" help:"Base URL for the application."`
	BackendURL string `arg:"--backend-url,env:BACKEND_URL" default:"" help:"Base URL of the users API the console talks to. Defaults to <base-url>/api."`

	Store      string `arg:"--store,env:STORE" default:"memory" help:"Document store backing the API: memory, sqlite, or postgres."`
	SQLitePath string `arg:"--sqlite-path,env:SQLITE_PATH" default:"roster.db" help:"Database file used by the sqlite store."`
	DBHost     string `arg:"--db-host,env:DB_HOST" default:"localhost"`
	DBName     string `arg:"--db-name,env:DB_NAME" default:"roster"`
	DBPort     int    `arg:"--db-port,env:DB_PORT" default:"5432"`
	DBMaxConns int    `arg:"--db-max-conns,env:DB_MAX_CONNS" default:"10"`
	DBMinConns int    `arg:"--db-min-conns,env:DB_MIN_CONNS" default:"1"`
	DBSSLMode  string `arg:"--db-ssl-mode,env:DB_SSL_MODE" default:"disable"`
	DBUsername string `arg:"--db-username,env:DB_USERNAME" default:"roster"`
	DBPassword string `arg:"--db-password,env:DB_PASSWORD" default:"badpassword"`

	SeedCount int    `arg:"--seed-count,env:SEED_COUNT" default:"5000" help:"Number of fake users generated when the store is empty. 0 disables seeding."`
	SeedValue uint64 `arg:"--seed-value,env:SEED_VALUE" default:"123" help:"Random seed for the fake user generator."`
	// seeded users are hashed at bcrypt.MinCost regardless
	BcryptCost int `arg:"--bcrypt-cost,env:BCRYPT_COST" default:"10" help:"bcrypt cost for stored password hashes."`

	PageSize        int           `arg:"--page-size,env:PAGE_SIZE" default:"25" help:"Rows per page in the users console."`
	ListStaleTime   time.Duration `arg:"--list-stale-time,env:LIST_STALE_TIME" default:"5m" help:"How long a cached list stays fresh."`
	DetailStaleTime time.Duration `arg:"--detail-stale-time,env:DETAIL_STALE_TIME" default:"10m" help:"How long a cached record stays fresh."`
	CacheSize       int           `arg:"--cache-size,env:CACHE_SIZE" default:"512" help:"Maximum number of cached list and detail entries."`
	RequestTimeout  time.Duration `arg:"--request-timeout,env:REQUEST_TIMEOUT" default:"10s" help:"Timeout for calls from the console to the API."`
	SessionTTL      time.Duration `arg:"--session-ttl,env:SESSION_TTL" default:"24h" help:"Lifetime of an idle console session."`
}

// APIBaseURL returns the URL the console's wire client should use.
func (c AppConfig) APIBaseURL() string {
	if c.BackendURL != "" {
		return strings.TrimRight(c.BackendURL, "/")
	}
	return strings.TrimRight(c.BaseURL, "/") + "/api"
}

func (c AppConfig) validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown store %q (want memory, sqlite or postgres)", c.Store)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
	}
	return nil
}

func LoadConfig() (*AppConfig, error) {
	var appConfig AppConfig
	arg.MustParse(&appConfig)

	if appConfig.DevMode {
		err := godotenv.Load(".env")
		if err == nil {
			// re-parse to get env vars from .env
			slog.Info("Loaded .env")
			arg.MustParse(&appConfig)
		}
	}

	SetLogLevel(appConfig.LogLevel, appConfig.DevMode)

	if err := appConfig.validate(); err != nil {
		return nil, err
	}
	return &appConfig, nil
}
