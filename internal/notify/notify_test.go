package notify

import (
	"context"
	"strings"
	"testing"

	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

func TestFormatMessage(t *testing.T) {
	t.Parallel()
	msg := FormatMessage(Event{
		SiteName:    "Nike Store",
		URL:         "https://nike.test/p",
		ProductName: "Air Test 90",
		NewSizes:    []string{"9", "10"},
		Price:       "$150",
	})

	if !strings.Contains(msg.Title, "Air Test 90") {
		t.Errorf("Title = %q", msg.Title)
	}
	for _, want := range []string{"Air Test 90", "9, 10", "Nike Store", "$150", "https://nike.test/p"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestFormatMessageDefaults(t *testing.T) {
	t.Parallel()
	msg := FormatMessage(Event{SiteName: "shop", URL: "https://shop.test"})
	if !strings.Contains(msg.Body, "Unknown") {
		t.Errorf("missing product placeholder:\n%s", msg.Body)
	}
	if strings.Contains(msg.Body, "Price") {
		t.Errorf("empty price should be omitted:\n%s", msg.Body)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"Air Max 9.5", `Air Max 9\.5`},
		{"a_b*c", `a\_b\*c`},
		{"[link](x)", `\[link\]\(x\)`},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTelegramDisabledWithoutCredentials(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  TelegramConfig
	}{
		{name: "disabled in config", cfg: TelegramConfig{Enabled: false, Token: "123:abc", ChatID: "42"}},
		{name: "missing token", cfg: TelegramConfig{Enabled: true, ChatID: "42"}},
		{name: "missing chat", cfg: TelegramConfig{Enabled: true, Token: "123:abc"}},
		{name: "non-numeric chat", cfg: TelegramConfig{Enabled: true, Token: "123:abc", ChatID: "@channel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tg := NewTelegram(tt.cfg, logx.Nop())
			if tg.Enabled() {
				t.Fatal("notifier enabled without usable credentials")
			}
			if err := tg.Send(context.Background(), Message{Body: "x"}); err == nil {
				t.Fatal("Send on a disabled notifier must error")
			}
		})
	}
}

func TestTelegramBuildMessageEscapes(t *testing.T) {
	t.Parallel()
	tg := NewTelegram(TelegramConfig{}, logx.Nop())
	msg := tg.BuildMessage(Event{
		SiteName:    "Some.Shop",
		URL:         "https://shop.test/p?a=1",
		ProductName: "Shoe (v2)",
		NewSizes:    []string{"9.5"},
	})

	for _, want := range []string{`Shoe \(v2\)`, `9\.5`, `Some\.Shop`, "N/A"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, msg.Body)
		}
	}
	// The link target must stay unescaped for MarkdownV2 to parse it.
	if !strings.Contains(msg.Body, "(https://shop.test/p?a=1)") {
		t.Errorf("Body missing raw URL:\n%s", msg.Body)
	}
}
