package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the whole process configuration. The file may be YAML or JSON;
// either way it is decoded strictly (unknown keys are rejected).
//
// Bot tokens and the admin chat id may also come from the environment
// (BOT_TOKEN / TG_BOT_TOKEN_MAIN, TG_BOT_TOKEN_AUCTION, ADMIN_ID,
// ACCOUNT_INFO); env values win over the file.
type Config struct {
	Telegram    TelegramConfig    `json:"telegram"`
	HTTP        HTTPConfig        `json:"http,omitempty"`
	Logging     LoggingConfig     `json:"logging,omitempty"`
	Dispatch    DispatchConfig    `json:"dispatch,omitempty"`
	Storage     StorageConfig     `json:"storage,omitempty"`
	Maintenance MaintenanceConfig `json:"maintenance,omitempty"`
}

type TelegramConfig struct {
	// Token runs the order-intake bot. Required.
	Token string `json:"token"`

	// AuctionToken runs the lot notification bot. Optional: without it the
	// relay endpoints report an error and only the order bot runs.
	AuctionToken string `json:"auction_token,omitempty"`

	// AdminChatID receives completed order requests.
	AdminChatID int64 `json:"admin_chat_id"`

	// AccountInfo is an optional forum/support URL appended to order replies.
	AccountInfo string `json:"account_info,omitempty"`

	// PollTimeout is a Go duration string for the long-poll window.
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type HTTPConfig struct {
	Addr string `json:"addr,omitempty"` // default ":8080"
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"` // trace|debug|info|warn|error
	Console *bool      `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// DispatchConfig tunes the notification fan-out.
//
// All durations are Go duration strings (e.g. "500ms", "12s").
type DispatchConfig struct {
	Workers     int    `json:"workers,omitempty"`       // default 4
	RatePerSec  int    `json:"rate_per_sec,omitempty"`  // default 10
	SendTimeout string `json:"send_timeout,omitempty"`  // default "12s"
	UpdateQueue int    `json:"update_queue,omitempty"`  // inbound update buffer, default 128
}

// StorageConfig controls order persistence.
//
// Driver "sqlite" stores completed orders in a database file; empty or
// "none" disables persistence.
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// MaintenanceConfig controls the periodic ledger job.
//
// Schedule is a cron expression (robfig/cron standard 5-field form, or
// descriptors like "@hourly"). DecisionTTL of zero keeps decision records
// forever, which is the default behavior.
type MaintenanceConfig struct {
	Schedule    string `json:"schedule,omitempty"`     // default "@hourly"
	DecisionTTL string `json:"decision_ttl,omitempty"` // default "0s" (never sweep)
}

func Default() *Config {
	console := true
	return &Config{
		HTTP:        HTTPConfig{Addr: ":8080"},
		Logging:     LoggingConfig{Level: "info", Console: &console},
		Maintenance: MaintenanceConfig{Schedule: "@hourly"},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required (or set BOT_TOKEN)")
	}
	if c.Telegram.AdminChatID == 0 {
		return errors.New("telegram.admin_chat_id is required (or set ADMIN_ID)")
	}
	for _, f := range []struct{ path, raw string }{
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"dispatch.send_timeout", c.Dispatch.SendTimeout},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"maintenance.decision_ttl", c.Maintenance.DecisionTTL},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) ConsoleLogging() bool {
	if c.Logging.Console == nil {
		return true
	}
	return *c.Logging.Console
}

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
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
