package engine

import (
	"github.com/hulikau/xxx-s-market-observer/internal/notify"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

// diffResults compares each successful result against the previous pass and
// produces one notification event per URL with newly available sizes.
//
// The dedup state is overwritten with the current set on every successful
// check, even when nothing is new, so a size that disappears and comes back
// notifies again. Failed checks never touch it: a flaky fetch must not make
// already-seen sizes look new on the next pass.
//
// Callers hold cycleMu, so lastFinds needs no locking of its own.
func (e *Engine) diffResults(results []CheckResult) (events []notify.Event, succeeded, failed, newSizes int) {
	for _, r := range results {
		if !r.Success {
			failed++
			continue
		}
		succeeded++

		current := r.Result.AvailableSizes
		fresh := current.Diff(e.lastFinds[r.URL])
		if len(fresh) > 0 {
			newSizes += len(fresh)
			if e.metrics != nil {
				e.metrics.AddNewSizes(len(fresh))
			}
			e.log.Info("new sizes available",
				logx.String("site", r.SiteName),
				logx.String("url", r.URL),
				logx.Strings("sizes", fresh.Sorted()))
			events = append(events, notify.Event{
				SiteName:    r.SiteName,
				URL:         r.URL,
				ProductName: r.Result.ProductName,
				NewSizes:    fresh.Sorted(),
				Price:       r.Result.Price,
				Metadata:    r.Result.Metadata,
			})
		}
		e.lastFinds[r.URL] = current.Clone()
	}
	e.stats.addSizesFound(newSizes)
	return events, succeeded, failed, newSizes
}
