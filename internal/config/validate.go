package config

import (
	"fmt"
	"strings"
	"time"
)

const minCheckIntervalSeconds = 60

// Validate checks invariants that must hold before a config is committed.
// Call Normalize first; Validate assumes defaults are already applied.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return fmt.Errorf("sites: at least one site is required")
	}

	seen := make(map[string]struct{}, len(c.Sites))
	for i, s := range c.Sites {
		at := fmt.Sprintf("sites[%d]", i)
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("%s.name: required", at)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%s.name: duplicate site name %q", at, name)
		}
		seen[name] = struct{}{}

		if strings.TrimSpace(s.Extractor) == "" {
			return fmt.Errorf("%s.extractor: required", at)
		}
		if len(s.URLs) == 0 {
			return fmt.Errorf("%s.urls: at least one URL is required", at)
		}
		for j, u := range s.URLs {
			if strings.TrimSpace(u) == "" {
				return fmt.Errorf("%s.urls[%d]: empty URL", at, j)
			}
		}
		if len(s.Sizes) == 0 {
			return fmt.Errorf("%s.sizes: at least one target size is required", at)
		}
		if s.CheckInterval != 0 && s.CheckInterval < minCheckIntervalSeconds {
			return fmt.Errorf("%s.check_interval: must be at least %d seconds", at, minCheckIntervalSeconds)
		}
	}

	if c.GlobalCheckInterval < minCheckIntervalSeconds {
		return fmt.Errorf("global_check_interval: must be at least %d seconds", minCheckIntervalSeconds)
	}
	if c.MaxConcurrentChecks < 1 {
		return fmt.Errorf("max_concurrent_checks: must be a positive integer")
	}
	if _, err := ParseDurationField("timeout", c.Timeout); err != nil {
		return err
	}

	tg := c.Notifications.Telegram
	if tg.Enabled {
		if strings.TrimSpace(tg.BotToken) == "" {
			return fmt.Errorf("notifications.telegram: bot_token is required (or set TELEGRAM_BOT_TOKEN)")
		}
		if strings.TrimSpace(tg.ChatID) == "" {
			return fmt.Errorf("notifications.telegram: chat_id is required (or set TELEGRAM_CHAT_ID)")
		}
	}

	return nil
}

// ParseDurationField parses a Go duration string from the config, naming the
// offending field in the error. Empty input parses to zero; negative
// durations are rejected.
func ParseDurationField(field, raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", field, raw)
	}
	return d, nil
}
