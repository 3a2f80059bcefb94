// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment key, e.g. SCHEDULER_HTTP_PORT.
const Prefix = "SCHEDULER"

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone string `envconfig:"TIMEZONE" default:"UTC"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"scheduler.db"`

	// RepositoryURL points the store at a remote repository. When empty the
	// store talks to the local database in process.
	RepositoryURL     string        `envconfig:"REPOSITORY_URL"`
	RepositoryTimeout time.Duration `envconfig:"REPOSITORY_TIMEOUT" default:"10s"`

	ConflictPolicy  string        `envconfig:"CONFLICT_POLICY" default:"advisory"`
	RefreshSchedule string        `envconfig:"REFRESH_SCHEDULE" default:"0 */5 * * * *"`
	RefreshTimeout  time.Duration `envconfig:"REFRESH_TIMEOUT" default:"30s"`

	SlotHorizonDays     int           `envconfig:"SLOT_HORIZON_DAYS" default:"7"`
	SlotStep            time.Duration `envconfig:"SLOT_STEP" default:"1h"`
	SlotDefaultDuration time.Duration `envconfig:"SLOT_DEFAULT_DURATION" default:"60m"`

	BaselineWeeklyHours float64       `envconfig:"BASELINE_WEEKLY_HOURS" default:"40"`
	RevenuePerEvent     float64       `envconfig:"REVENUE_PER_EVENT" default:"50"`
	AnalyticsCacheTTL   time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"30s"`

	NATSURL     string `envconfig:"NATS_URL"`
	NATSSubject string `envconfig:"NATS_SUBJECT" default:"schedule.events"`

	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"trainer-scheduler"`
}

// Location resolves Timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads optional .env files and then parses the process environment.
// Files never override variables that are already set.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	invalid := make([]string, 0, 4)
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, Prefix+"_HTTP_PORT")
	}
	switch cfg.DBDriver {
	case "sqlite", "pgx":
	default:
		invalid = append(invalid, Prefix+"_DB_DRIVER")
	}
	switch cfg.ConflictPolicy {
	case "advisory", "enforce":
	default:
		invalid = append(invalid, Prefix+"_CONFLICT_POLICY")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, Prefix+"_TIMEZONE")
	}
	if cfg.SlotHorizonDays <= 0 {
		invalid = append(invalid, Prefix+"_SLOT_HORIZON_DAYS")
	}
	if cfg.SlotStep <= 0 {
		invalid = append(invalid, Prefix+"_SLOT_STEP")
	}
	if cfg.SlotDefaultDuration <= 0 {
		invalid = append(invalid, Prefix+"_SLOT_DEFAULT_DURATION")
	}
	if cfg.BaselineWeeklyHours <= 0 {
		invalid = append(invalid, Prefix+"_BASELINE_WEEKLY_HOURS")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid values for %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}
