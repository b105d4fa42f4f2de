package commands

import (
	"errors"
	"fmt"
	"os"
	"ratesetter-client/internal/components/configutil"
	"ratesetter-client/internal/components/telemetry"
	"ratesetter-client/internal/notify"
	"ratesetter-client/internal/scrapers/ratesetter"
	"time"

	"github.com/shopspring/decimal"
)

const (
	envEmail    = "RATESETTER_EMAIL"
	envPassword = "RATESETTER_PASSWORD"

	defaultDatabase = "ratesetter.db"
	defaultSchedule = "@every 1h"
)

type Config struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Natural  bool   `json:"natural"`

	// Database is the path of the sqlite file snapshots are recorded into.
	Database string `json:"database"`
	// Schedule is a cron expression, descriptors like "@every 30m" work too.
	Schedule string `json:"schedule"`

	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`

	Otlp   telemetry.OtlpConfig `json:"otlp"`
	Notify notify.Config        `json:"notify"`
}

// loadConfig reads path (and its .local override), when search is set path is
// looked up in the working directory and its parents. A missing file is fine
// as long as the credentials come from the environment.
func loadConfig(path string, search bool) (Config, error) {
	var config Config
	var err error
	if search {
		config, err = configutil.ReadRecursively[Config](".", path)
	} else {
		config, err = configutil.ReadConfig[Config](path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	configutil.OverrideFromEnv(&config.Email, envEmail)
	configutil.OverrideFromEnv(&config.Password, envPassword)

	if config.Database == "" {
		config.Database = defaultDatabase
	}
	if config.Schedule == "" {
		config.Schedule = defaultSchedule
	}
	if config.TimeoutSeconds < 0 {
		return Config{}, fmt.Errorf("timeout_seconds cannot be negative")
	}
	_, err = config.notifyThreshold()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) hasCredentials() bool {
	return c.Email != "" && c.Password != ""
}

func (c Config) clientOptions(tel telemetry.API, output telemetry.MessageOutput) (ratesetter.Options, error) {
	if !c.hasCredentials() {
		return ratesetter.Options{}, fmt.Errorf(
			"no credentials, set email and password in the config or %s and %s",
			envEmail, envPassword,
		)
	}

	opts := ratesetter.Options{
		Email:             c.Email,
		Password:          c.Password,
		Natural:           c.Natural,
		Tel:               tel,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
		MessageOutput:     output,
	}
	return opts, nil
}

func (c Config) notifyThreshold() (decimal.Decimal, error) {
	if c.Notify.Threshold == "" {
		return decimal.Zero, nil
	}
	threshold, err := decimal.NewFromString(c.Notify.Threshold)
	if err != nil {
		return decimal.Zero, fmt.Errorf("notify threshold: %w", err)
	}
	if threshold.IsNegative() {
		return decimal.Zero, fmt.Errorf("notify threshold cannot be negative")
	}
	return threshold, nil
}
