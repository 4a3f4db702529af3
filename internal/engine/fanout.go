package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hulikau/xxx-s-market-observer/internal/notify"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

// fanOut delivers each event to every enabled notifier concurrently. A
// notifier that errors or panics only loses its own delivery; the rest of
// the fan-out proceeds. Returns the number of successful deliveries.
func (e *Engine) fanOut(ctx context.Context, events []notify.Event) int {
	if len(events) == 0 {
		return 0
	}

	var enabled []notify.Notifier
	for _, n := range e.notifiers {
		if n.Enabled() {
			enabled = append(enabled, n)
		}
	}
	if len(enabled) == 0 {
		e.log.Warn("no enabled notifiers, dropping events",
			logx.Int("events", len(events)))
		return 0
	}

	total := 0
	for _, ev := range events {
		var delivered atomic.Int64
		var wg sync.WaitGroup
		for _, n := range enabled {
			wg.Add(1)
			go func(n notify.Notifier) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						e.log.Error("notifier panicked",
							logx.String("notifier", n.Name()),
							logx.Any("panic", r))
					}
				}()
				msg := n.BuildMessage(ev)
				if err := n.Send(ctx, msg); err != nil {
					e.log.Warn("notification failed",
						logx.String("notifier", n.Name()),
						logx.String("site", ev.SiteName),
						logx.Err(err))
					if e.metrics != nil {
						e.metrics.ObserveNotification(false)
					}
					return
				}
				delivered.Add(1)
				if e.metrics != nil {
					e.metrics.ObserveNotification(true)
				}
			}(n)
		}
		wg.Wait()

		ok := int(delivered.Load())
		total += ok
		if e.recorder != nil {
			if err := e.recorder.RecordNotification(ctx, ev, ok); err != nil {
				e.log.Warn("recording notification failed", logx.Err(err))
			}
		}
	}
	e.stats.addNotificationsSent(total)
	return total
}
