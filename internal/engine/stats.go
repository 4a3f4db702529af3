package engine

import (
	"sync"
	"time"
)

// statsCollector accumulates session counters. Counts are only ever added
// after a cycle barrier, so writers never race with in-flight checks, but
// StatsSnapshot may be called from any goroutine.
type statsCollector struct {
	mu sync.Mutex
	s  Stats
}

func (c *statsCollector) reset(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = Stats{StartTime: now}
}

func (c *statsCollector) recordCycle(total, succeeded, failed int, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.TotalChecks += total
	c.s.SuccessfulChecks += succeeded
	c.s.FailedChecks += failed
	c.s.LastCheckTime = at
}

func (c *statsCollector) addSizesFound(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.SizesFound += n
}

func (c *statsCollector) addNotificationsSent(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.NotificationsSent += n
}

func (c *statsCollector) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
