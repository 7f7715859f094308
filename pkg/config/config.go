package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev = "dev"

	EnvAppEnv          = "APP_ENV"
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvPlansCSVURL     = "PLANS_CSV_URL"
	EnvPlansCSVTimeout = "PLANS_CSV_TIMEOUT"
	EnvSyncCron        = "SYNC_CRON"
	EnvVendorBaseURL   = "ESIM_ACCESS_BASE_URL"
	EnvVendorAccess    = "ESIM_ACCESS_CODE"
	EnvVendorSecret    = "ESIM_ACCESS_SECRET"

	DefaultSyncCron = "0 */6 * * *"
)

type Config struct {
	App    AppConfig
	Sync   SyncConfig
	Vendor VendorConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.Sync.Cron) == "" {
		cfg.Sync.Cron = DefaultSyncCron
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"APP_ENV" default:"dev"`
	Port         string `envconfig:"PORT" default:"3000"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma-separated allow list; empty allows any origin.
	CORSOrigins     []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// SyncConfig controls the plan catalog synchronization job.
type SyncConfig struct {
	// CSVURL selects the CSV feed as the plan source when non-empty.
	CSVURL     string        `envconfig:"PLANS_CSV_URL"`
	CSVTimeout time.Duration `envconfig:"PLANS_CSV_TIMEOUT" default:"20s"`
	Cron       string        `envconfig:"SYNC_CRON" default:"0 */6 * * *"`
}

// UsesCSV reports whether the sync job should read the CSV feed.
func (s SyncConfig) UsesCSV() bool {
	return strings.TrimSpace(s.CSVURL) != ""
}

type VendorConfig struct {
	BaseURL    string        `envconfig:"ESIM_ACCESS_BASE_URL" default:"https://api.esimaccess.com/api/v1/open"`
	AccessCode string        `envconfig:"ESIM_ACCESS_CODE"`
	Secret     string        `envconfig:"ESIM_ACCESS_SECRET"`
	Timeout    time.Duration `envconfig:"VENDOR_TIMEOUT" default:"30s"`
}
