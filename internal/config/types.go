package config

import "os"

// Config is the full configuration document.
//
// The file on disk is YAML (or JSON); both are decoded strictly so typos and
// removed legacy keys are caught at load time rather than silently ignored.
type Config struct {
	Sites         []Site        `json:"sites"`
	Notifications Notifications `json:"notifications"`

	// GlobalCheckInterval is the pause between monitoring cycles, in seconds.
	GlobalCheckInterval int `json:"global_check_interval"`
	// Schedule optionally overrides GlobalCheckInterval with a cron
	// expression ("*/5 * * * *", "@hourly") or a duration string ("90s").
	Schedule string `json:"schedule,omitempty"`

	MaxConcurrentChecks int    `json:"max_concurrent_checks"`
	UserAgent           string `json:"user_agent,omitempty"`
	// Timeout is a Go duration string applied to page fetches (e.g. "30s").
	Timeout string `json:"timeout,omitempty"`

	Log     Log     `json:"log"`
	HTTP    HTTP    `json:"http"`
	History History `json:"history"`
}

// Site describes one monitored shop.
type Site struct {
	Name      string   `json:"name"`
	Extractor string   `json:"extractor"`
	URLs      []string `json:"urls"`
	Sizes     []string `json:"sizes"`
	// CheckInterval is informational (seconds); the global schedule drives cadence.
	CheckInterval int `json:"check_interval,omitempty"`
	// Enabled defaults to true when omitted.
	Enabled *bool             `json:"enabled,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
}

func (s Site) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

type Notifications struct {
	Telegram Telegram `json:"telegram"`
}

type Telegram struct {
	Enabled bool `json:"enabled"`
	// BotToken and ChatID fall back to TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID
	// environment variables when empty, so secrets can stay out of the file.
	BotToken string `json:"bot_token,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
	// RatePerSec caps outbound sends; 0 means the default (1/s).
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type Log struct {
	Level   string  `json:"level,omitempty"`
	Console *bool   `json:"console,omitempty"`
	File    LogFile `json:"file"`
}

func (l Log) ConsoleEnabled() bool { return l.Console == nil || *l.Console }

type LogFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type HTTP struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

type History struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

const (
	defaultCheckInterval = 300
	defaultMaxConcurrent = 5
	defaultUserAgent     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout       = "30s"
	defaultHTTPAddr      = ":8744"
	defaultHistoryPath   = "./monitor-history.db"
)

// Normalize fills defaults and resolves environment fallbacks in place.
// It is called by Load/Parse after decoding, before validation.
func (c *Config) Normalize() {
	if c.GlobalCheckInterval <= 0 {
		c.GlobalCheckInterval = defaultCheckInterval
	}
	if c.MaxConcurrentChecks <= 0 {
		c.MaxConcurrentChecks = defaultMaxConcurrent
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout == "" {
		c.Timeout = defaultTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaultHTTPAddr
	}
	if c.History.Path == "" {
		c.History.Path = defaultHistoryPath
	}

	tg := &c.Notifications.Telegram
	if tg.BotToken == "" {
		tg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if tg.ChatID == "" {
		tg.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	}
}
