package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hulikau/xxx-s-market-observer/internal/extract"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

type checkTask struct {
	site Target
	url  string
}

// dispatch fans out one check per (site, URL) pair, bounded by
// cfg.MaxConcurrent, and blocks until every check has settled. The returned
// slice has one entry per pair in input order; a panicking or canceled check
// settles as a failed result rather than tearing down the cycle.
func (e *Engine) dispatch(ctx context.Context, cfg Config, targets []Target) []CheckResult {
	var tasks []checkTask
	for _, t := range targets {
		for _, u := range t.URLs {
			tasks = append(tasks, checkTask{site: t, url: u})
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	results := make([]CheckResult, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task checkTask) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = failedResult(task, err.Error(), time.Now())
				return
			}
			defer sem.Release(1)
			results[i] = e.checkOne(ctx, task)
		}(i, task)
	}
	wg.Wait()
	return results
}

// checkOne resolves the extractor and runs a single check. Failures of any
// kind, including panics, come back as a failed CheckResult.
func (e *Engine) checkOne(ctx context.Context, task checkTask) (res CheckResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("check panicked",
				logx.String("site", task.site.Name),
				logx.String("url", task.url),
				logx.Any("panic", r))
			res = failedResult(task, fmt.Sprintf("panic: %v", r), start)
		}
		res.Duration = time.Since(start)
		if e.metrics != nil {
			e.metrics.ObserveCheck(res.Success)
		}
	}()

	opts := extract.Options{
		Client:    e.httpClient(),
		UserAgent: e.config().UserAgent,
		Headers:   task.site.Headers,
		Cookies:   task.site.Cookies,
	}
	ex, ok := e.registry.Get(task.site.Extractor, opts)
	if !ok {
		return failedResult(task, fmt.Sprintf("extractor not found: %s", task.site.Extractor), start)
	}

	out := ex.Extract(ctx, task.url, task.site.Sizes)
	res = CheckResult{
		SiteName:  task.site.Name,
		URL:       task.url,
		Success:   out.OK(),
		Result:    out,
		Err:       out.Err,
		CheckedAt: start,
	}
	if !res.Success {
		e.log.Warn("check failed",
			logx.String("site", task.site.Name),
			logx.String("url", task.url),
			logx.String("error", res.Err))
	}
	return res
}

func failedResult(task checkTask, msg string, at time.Time) CheckResult {
	return CheckResult{
		SiteName:  task.site.Name,
		URL:       task.url,
		Success:   false,
		Err:       msg,
		CheckedAt: at,
	}
}
