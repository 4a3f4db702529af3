package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hulikau/xxx-s-market-observer/internal/app"
	"github.com/hulikau/xxx-s-market-observer/internal/config"
	"github.com/hulikau/xxx-s-market-observer/internal/engine"
	"github.com/hulikau/xxx-s-market-observer/internal/extract"
	"github.com/hulikau/xxx-s-market-observer/internal/notify"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

const defaultConfigPath = "./config.yaml"

func main() {
	// Secrets (bot token, chat id) may live in a local .env file.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "run":
		err = cmdRun(ctx, os.Args[2:])
	case "check":
		err = cmdCheck(ctx, os.Args[2:])
	case "init":
		err = cmdInit(os.Args[2:])
	case "status":
		err = cmdStatus(ctx, os.Args[2:])
	case "notify-test":
		err = cmdNotifyTest(ctx, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: monitor <command> [flags]

Commands:
  run          start the monitoring daemon
  check        run checks once and print the results
  init         write an example config file
  status       query a running daemon's stats over HTTP
  notify-test  send a test notification

Run 'monitor <command> -h' for command flags.
`)
}

func cmdRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "path to config file (yaml or json)")
	_ = fs.Parse(args)

	a, err := app.New(*cfgPath)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func cmdCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "path to config file (yaml or json)")
	site := fs.String("site", "", "check only this site")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	cfg, err := config.NewManager(*cfgPath).Load()
	if err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logx.NewConsole(level)

	registry := extract.NewRegistry(log)
	extract.RegisterBuiltins(registry)

	engCfg, err := app.MapEngineConfig(cfg)
	if err != nil {
		return err
	}
	eng := engine.New(engCfg, engine.Deps{Registry: registry, Log: log})

	names := make([]string, 0, len(engCfg.Targets))
	if *site != "" {
		names = append(names, *site)
	} else {
		for _, t := range engCfg.Targets {
			if t.Enabled {
				names = append(names, t.Name)
			}
		}
	}

	failures := 0
	for _, name := range names {
		results, err := eng.CheckSingleSite(ctx, name)
		if err != nil {
			return err
		}
		for _, r := range results {
			printResult(r)
			if !r.Success {
				failures++
			}
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	return nil
}

func printResult(r engine.CheckResult) {
	status := "ok"
	if !r.Success {
		status = "FAIL"
	}
	fmt.Printf("%-6s %-20s %s\n", status, r.SiteName, r.URL)
	if !r.Success {
		fmt.Printf("       error: %s\n", r.Err)
		return
	}
	if r.Result.ProductName != "" {
		fmt.Printf("       product: %s\n", r.Result.ProductName)
	}
	if sizes := r.Result.AvailableSizes.Sorted(); len(sizes) > 0 {
		fmt.Printf("       available: %s\n", strings.Join(sizes, ", "))
	} else {
		fmt.Println("       available: none of the target sizes")
	}
	if r.Result.Price != "" {
		fmt.Printf("       price: %s\n", r.Result.Price)
	}
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", defaultConfigPath, "where to write the example config")
	_ = fs.Parse(args)

	if err := config.WriteExample(*path); err != nil {
		return err
	}
	fmt.Println("wrote", *path)
	return nil
}

func cmdStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "path to config file (yaml or json)")
	addr := fs.String("addr", "http://127.0.0.1:8744", "base URL of the running daemon's HTTP API")
	_ = fs.Parse(args)

	if cfg, err := config.NewManager(*cfgPath).Load(); err == nil {
		enabled := 0
		for _, s := range cfg.Sites {
			if s.IsEnabled() {
				enabled++
			}
		}
		fmt.Printf("config:             %s\n", *cfgPath)
		fmt.Printf("sites:              %d (%d enabled)\n", len(cfg.Sites), enabled)
		for _, s := range cfg.Sites {
			state := "enabled"
			if !s.IsEnabled() {
				state = "disabled"
			}
			fmt.Printf("  - %-20s extractor=%-8s urls=%d sizes=%v (%s)\n",
				s.Name, s.Extractor, len(s.URLs), s.Sizes, state)
		}
		reg := extract.NewRegistry(logx.Nop())
		extract.RegisterBuiltins(reg)
		fmt.Printf("extractors:         %s\n", strings.Join(reg.IDs(), ", "))
		fmt.Printf("telegram:           enabled=%v\n", cfg.Notifications.Telegram.Enabled)
		fmt.Println()
	} else {
		fmt.Printf("config:             %s (not loadable: %v)\n\n", *cfgPath, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet,
		strings.TrimRight(*addr, "/")+"/stats", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("daemon:             not reachable at %s\n", *addr)
		return nil
	}
	defer resp.Body.Close()

	var stats engine.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return err
	}

	fmt.Printf("total checks:       %d\n", stats.TotalChecks)
	fmt.Printf("successful:         %d\n", stats.SuccessfulChecks)
	fmt.Printf("failed:             %d\n", stats.FailedChecks)
	fmt.Printf("new sizes found:    %d\n", stats.SizesFound)
	fmt.Printf("notifications sent: %d\n", stats.NotificationsSent)
	if !stats.StartTime.IsZero() {
		fmt.Printf("running since:      %s (%s)\n",
			stats.StartTime.Format(time.RFC3339), time.Since(stats.StartTime).Round(time.Second))
	}
	if !stats.LastCheckTime.IsZero() {
		fmt.Printf("last check:         %s\n", stats.LastCheckTime.Format(time.RFC3339))
	}
	return nil
}

func cmdNotifyTest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notify-test", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "path to config file (yaml or json)")
	_ = fs.Parse(args)

	cfg, err := config.NewManager(*cfgPath).Load()
	if err != nil {
		return err
	}

	tg := notify.NewTelegram(notify.TelegramConfig{
		Enabled:    cfg.Notifications.Telegram.Enabled,
		Token:      cfg.Notifications.Telegram.BotToken,
		ChatID:     cfg.Notifications.Telegram.ChatID,
		RatePerSec: cfg.Notifications.Telegram.RatePerSec,
	}, logx.NewConsole("info"))
	if !tg.Enabled() {
		return fmt.Errorf("telegram notifications are not configured (enable them and set token/chat id)")
	}

	ev := notify.Event{
		SiteName:    "test",
		URL:         "https://example.com/product",
		ProductName: "Test Product",
		NewSizes:    []string{"9", "10"},
		Price:       "$0.00",
	}
	if err := tg.Send(ctx, tg.BuildMessage(ev)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Println("test notification sent")
	return nil
}
