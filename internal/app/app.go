// Package app wires configuration, extractors, notifiers, storage, and the
// monitoring engine into a runnable daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/hulikau/xxx-s-market-observer/internal/config"
	"github.com/hulikau/xxx-s-market-observer/internal/engine"
	"github.com/hulikau/xxx-s-market-observer/internal/extract"
	"github.com/hulikau/xxx-s-market-observer/internal/history"
	"github.com/hulikau/xxx-s-market-observer/internal/httpapi"
	"github.com/hulikau/xxx-s-market-observer/internal/metrics"
	"github.com/hulikau/xxx-s-market-observer/internal/notify"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

// App owns the daemon's components for the run subcommand.
type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	registry *extract.Registry
	eng      *engine.Engine
	store    *history.Store
	httpAddr string
	httpSrv  *http.Server
}

// New loads the configuration at cfgPath and builds all components.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	registry := extract.NewRegistry(log.With(logx.String("comp", "extract")))
	extract.RegisterBuiltins(registry)

	tg := notify.NewTelegram(notify.TelegramConfig{
		Enabled:    cfg.Notifications.Telegram.Enabled,
		Token:      cfg.Notifications.Telegram.BotToken,
		ChatID:     cfg.Notifications.Telegram.ChatID,
		RatePerSec: cfg.Notifications.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "telegram")))

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(history.Config{Path: cfg.History.Path},
			log.With(logx.String("comp", "history")))
		if err != nil {
			logSvc.Close()
			return nil, fmt.Errorf("history: %w", err)
		}
		log.Info("history enabled", logx.String("path", cfg.History.Path))
	}

	engCfg, err := MapEngineConfig(cfg)
	if err != nil {
		_ = store.Close()
		logSvc.Close()
		return nil, err
	}

	deps := engine.Deps{
		Registry:  registry,
		Notifiers: []notify.Notifier{tg},
		Metrics:   metrics.New(prometheus.DefaultRegisterer),
		Log:       log.With(logx.String("comp", "engine")),
	}
	if store != nil {
		deps.Recorder = store
	}
	eng := engine.New(engCfg, deps)

	a := &App{
		cfgm:     cfgm,
		logs:     logSvc,
		log:      log,
		registry: registry,
		eng:      eng,
		store:    store,
	}
	if cfg.HTTP.Enabled {
		a.httpAddr = cfg.HTTP.Addr
		h := httpapi.NewHandler(eng, store, log.With(logx.String("comp", "http")))
		a.httpSrv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           h.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return a, nil
}

// Engine exposes the wired engine for one-shot subcommands.
func (a *App) Engine() *engine.Engine { return a.eng }

// Run starts all components and blocks until ctx is canceled or a component
// fails fatally.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.eng.Run(gctx)
	})

	g.Go(func() error {
		return a.cfgm.Watch(gctx)
	})

	// Hot-reload fan-out: stage engine config and swap log sinks.
	sub := a.cfgm.Subscribe(4)
	g.Go(func() error {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-gctx.Done():
				return nil
			case cfg, ok := <-sub:
				if !ok {
					return nil
				}
				a.applyConfig(cfg)
			}
		}
	})

	if a.httpSrv != nil {
		g.Go(func() error {
			a.log.Info("http api listening", logx.String("addr", a.httpAddr))
			if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.httpSrv.Shutdown(shutCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
		a.eng.Stop()
		return nil
	})

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	err := g.Wait()

	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			a.log.Warn("closing history failed", logx.Err(cerr))
		}
	}
	a.log.Info("shutdown complete")
	a.logs.Close()
	return err
}

func (a *App) applyConfig(cfg *config.Config) {
	engCfg, err := MapEngineConfig(cfg)
	if err != nil {
		a.log.Warn("invalid config after reload; keeping previous", logx.Err(err))
		return
	}
	a.eng.Apply(engCfg)
	a.logs.Apply(logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
	})
}

// MapEngineConfig translates the file configuration into the engine's view.
func MapEngineConfig(cfg *config.Config) (engine.Config, error) {
	timeout, err := config.ParseDurationField("timeout", cfg.Timeout)
	if err != nil {
		return engine.Config{}, err
	}

	targets := make([]engine.Target, 0, len(cfg.Sites))
	for _, s := range cfg.Sites {
		targets = append(targets, engine.Target{
			Name:          s.Name,
			Extractor:     s.Extractor,
			URLs:          s.URLs,
			Sizes:         s.Sizes,
			Enabled:       s.IsEnabled(),
			CheckInterval: time.Duration(s.CheckInterval) * time.Second,
			Headers:       s.Headers,
			Cookies:       s.Cookies,
		})
	}

	return engine.Config{
		Targets:       targets,
		Interval:      time.Duration(cfg.GlobalCheckInterval) * time.Second,
		Schedule:      cfg.Schedule,
		MaxConcurrent: cfg.MaxConcurrentChecks,
		UserAgent:     cfg.UserAgent,
		FetchTimeout:  timeout,
	}, nil
}
