package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule decides how long the engine sleeps between cycles. It is either
// a fixed interval or a cron expression resolved against wall-clock time.
type Schedule struct {
	Every time.Duration
	Cron  cron.Schedule
	// Source records how the schedule string was interpreted,
	// one of "interval", "cron", "duration", "hhmm".
	Source string
}

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// ParseSchedule parses a schedule string. Supported forms:
//   - Cron (crontab.guru-style): "*/5 * * * *", "@hourly", "@every 55m"
//   - Duration: "55m", "2h30m"
//   - HH:MM interval: "02:30" (2 hours 30 minutes)
//
// An empty string falls back to the fixed interval.
func ParseSchedule(raw string, fallback time.Duration) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		if fallback <= 0 {
			return Schedule{}, fmt.Errorf("check interval must be > 0")
		}
		return Schedule{Every: fallback, Source: "interval"}, nil
	}

	// Whitespace or a leading '@' means cron.
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		cs, err := cron.ParseStandard(s)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", s, err)
		}
		return Schedule{Cron: cs, Source: "cron"}, nil
	}

	if reHHMM.MatchString(s) {
		d, err := parseHHMMDuration(s)
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{Every: d, Source: "hhmm"}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return Schedule{}, fmt.Errorf(
			"invalid schedule %q (use cron like '*/5 * * * *', HH:MM like '02:30', or duration like '55m')",
			raw,
		)
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("interval must be > 0")
	}
	return Schedule{Every: d, Source: "duration"}, nil
}

// NextWait returns how long to sleep after a cycle that finished at now.
func (s Schedule) NextWait(now time.Time) time.Duration {
	if s.Cron != nil {
		wait := s.Cron.Next(now).Sub(now)
		if wait < time.Second {
			wait = time.Second
		}
		return wait
	}
	return s.Every
}

func parseHHMMDuration(v string) (time.Duration, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	var hh int
	for i := 0; i < len(m[1]); i++ {
		hh = hh*10 + int(m[1][i]-'0')
	}
	mm := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}
