package engine

import (
	"context"
	"errors"
	"time"

	"github.com/hulikau/xxx-s-market-observer/internal/extract"
	"github.com/hulikau/xxx-s-market-observer/internal/notify"
)

var (
	// ErrAlreadyRunning is returned by Run when a monitoring session is active.
	ErrAlreadyRunning = errors.New("monitor already running")
	// ErrSiteNotFound is returned by CheckSingleSite for unknown site names.
	ErrSiteNotFound = errors.New("site not found")
)

// Target is one monitored shop as the engine sees it: immutable for the
// lifetime of one applied configuration.
type Target struct {
	Name      string
	Extractor string
	URLs      []string
	Sizes     []string
	Enabled   bool
	// CheckInterval is informational; the global schedule drives cadence.
	CheckInterval time.Duration
	Headers       map[string]string
	Cookies       map[string]string
}

// Config is the engine's working configuration, mapped from the config file
// by the caller.
type Config struct {
	Targets []Target
	// Interval between cycles. Schedule, when set, overrides it with a cron
	// expression or duration string.
	Interval time.Duration
	Schedule string

	MaxConcurrent int
	UserAgent     string
	FetchTimeout  time.Duration
}

// CheckResult is the outcome of checking one (site, URL) pair. It is handed
// to the diff step right after the cycle barrier and not retained.
type CheckResult struct {
	SiteName string
	URL      string
	Success  bool
	Result   extract.Result
	// Err is the human-readable failure description when Success is false.
	Err       string
	Duration  time.Duration
	CheckedAt time.Time
}

// Stats is an immutable snapshot of one monitoring session's counters.
type Stats struct {
	TotalChecks       int       `json:"total_checks"`
	SuccessfulChecks  int       `json:"successful_checks"`
	FailedChecks      int       `json:"failed_checks"`
	SizesFound        int       `json:"sizes_found"`
	NotificationsSent int       `json:"notifications_sent"`
	StartTime         time.Time `json:"start_time"`
	LastCheckTime     time.Time `json:"last_check_time,omitzero"`
}

// CycleSummary describes one completed cycle for the audit trail.
type CycleSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	NewSizes   int
	Notified   int
}

// Recorder persists an audit trail of cycles and notifications.
// All calls are best-effort; the engine logs and continues on error.
type Recorder interface {
	RecordCycle(ctx context.Context, c CycleSummary) error
	RecordNotification(ctx context.Context, ev notify.Event, delivered int) error
}

// Metrics receives engine observations. Implementations must be cheap and
// safe for concurrent use.
type Metrics interface {
	ObserveCheck(success bool)
	AddNewSizes(n int)
	ObserveNotification(success bool)
	ObserveCycle(d time.Duration)
}
