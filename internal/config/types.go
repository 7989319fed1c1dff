package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration. Everything except the bot
// token and the owner id has a usable default, so a config file is
// optional; secrets always come from the environment and are never
// written to disk.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type TelegramConfig struct {
	// Token and OwnerID are populated from BOT_TOKEN / OWNER_ID and must
	// never appear in a config file.
	Token   string `json:"-"`
	OwnerID int64  `json:"-"`

	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	Path string `json:"path,omitempty"`
	// BusyTimeout is a Go duration string applied as the sqlite busy_timeout pragma.
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type SchedulerConfig struct {
	// Timezone is an IANA name used for parsing schedule dates and for
	// the maintenance cron entries. Empty means the host local zone.
	Timezone string `json:"timezone,omitempty"`
}

func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: "10s",
			RatePerSec:  25,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Storage: StorageConfig{
			Path:        "data/subscribers.db",
			BusyTimeout: "5s",
		},
	}
}

// ApplyEnv overlays process environment onto cfg. BOT_TOKEN and OWNER_ID
// are the only source for their fields; DB_PATH overrides the storage path
// when set.
func (c *Config) ApplyEnv() error {
	c.Telegram.Token = strings.TrimSpace(os.Getenv("BOT_TOKEN"))

	if raw := strings.TrimSpace(os.Getenv("OWNER_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("OWNER_ID: invalid integer %q: %w", raw, err)
		}
		c.Telegram.OwnerID = id
	}

	if p := strings.TrimSpace(os.Getenv("DB_PATH")); p != "" {
		c.Storage.Path = p
	}
	return nil
}

// Validate checks the invariants that make the process able to run at all.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram: bot token is required (set BOT_TOKEN)")
	}
	if c.Telegram.OwnerID == 0 {
		return fmt.Errorf("telegram: owner id is required (set OWNER_ID)")
	}
	if c.Telegram.RatePerSec < 0 {
		return fmt.Errorf("telegram: rate_per_sec must be >= 0")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage: path must not be empty")
	}
	return nil
}

// ParseDurationField parses an optional Go duration string. Empty input
// means "not set" and yields zero.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with a fallback for unset
// or zero values.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil || d > 0 {
		return d, err
	}
	return def, nil
}
