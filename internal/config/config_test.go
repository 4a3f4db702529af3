package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
sites:
  - name: Shop
    extractor: generic
    urls: ["https://shop.test/p"]
    sizes: ["9"]
`

func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", minimalYAML)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.GlobalCheckInterval != 300 {
		t.Errorf("GlobalCheckInterval = %d, want 300", cfg.GlobalCheckInterval)
	}
	if cfg.MaxConcurrentChecks != 5 {
		t.Errorf("MaxConcurrentChecks = %d, want 5", cfg.MaxConcurrentChecks)
	}
	if cfg.Timeout != "30s" {
		t.Errorf("Timeout = %q, want 30s", cfg.Timeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if !cfg.Sites[0].IsEnabled() {
		t.Error("omitted enabled should default to true")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", minimalYAML+`
maxconcurrent_checks: 3
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseJSONFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
  "sites": [
    {"name": "Shop", "extractor": "generic", "urls": ["https://shop.test/p"], "sizes": ["9"]}
  ]
}`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Name != "Shop" {
		t.Fatalf("sites = %+v", cfg.Sites)
	}
}

func TestTelegramEnvFallback(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")

	path := writeConfig(t, "config.yaml", minimalYAML+`
notifications:
  telegram:
    enabled: true
`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tg := cfg.Notifications.Telegram
	if tg.BotToken != "123:abc" || tg.ChatID != "-100200300" {
		t.Fatalf("telegram = %+v, want env fallback applied", tg)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no sites",
			yaml: `global_check_interval: 300`,
			want: "at least one site",
		},
		{
			name: "duplicate names",
			yaml: `
sites:
  - name: Shop
    extractor: generic
    urls: ["https://a.test"]
    sizes: ["9"]
  - name: Shop
    extractor: generic
    urls: ["https://b.test"]
    sizes: ["9"]
`,
			want: "duplicate site name",
		},
		{
			name: "missing extractor",
			yaml: `
sites:
  - name: Shop
    urls: ["https://a.test"]
    sizes: ["9"]
`,
			want: "extractor",
		},
		{
			name: "no sizes",
			yaml: `
sites:
  - name: Shop
    extractor: generic
    urls: ["https://a.test"]
    sizes: []
`,
			want: "target size",
		},
		{
			name: "interval too short",
			yaml: minimalYAML + `
global_check_interval: 10
`,
			want: "at least 60 seconds",
		},
		{
			name: "bad timeout",
			yaml: minimalYAML + `
timeout: soon
`,
			want: "timeout",
		},
		{
			name: "telegram enabled without secrets",
			yaml: minimalYAML + `
notifications:
  telegram:
    enabled: true
`,
			want: "bot_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "config.yaml", tt.yaml)
			_, err := NewManager(path).Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample: %v", err)
	}
	if _, err := NewManager(path).Load(); err != nil {
		t.Fatalf("example config does not load: %v", err)
	}

	if err := WriteExample(path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("timeout", "45s"); err != nil || d.Seconds() != 45 {
		t.Fatalf("ParseDurationField = %v, %v", d, err)
	}
	if _, err := ParseDurationField("timeout", "never"); err == nil {
		t.Fatal("expected error for bad duration")
	}
	if _, err := ParseDurationField("timeout", "-3s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
}
