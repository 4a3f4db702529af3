package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"

	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

// TelegramConfig configures the Telegram notifier.
type TelegramConfig struct {
	Enabled    bool
	Token      string
	ChatID     string
	RatePerSec int
}

// Telegram sends alerts to one chat via the Bot API (telebot).
//
// Construction never fails hard: missing token/chat or an unreachable API
// downgrade the notifier to disabled, mirroring how an absent notification
// channel is a configuration state rather than an error.
type Telegram struct {
	log     logx.Logger
	bot     *tele.Bot
	chatID  int64
	limiter *rate.Limiter
	enabled bool
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) *Telegram {
	if log.IsZero() {
		log = logx.Nop()
	}
	t := &Telegram{log: log}

	if !cfg.Enabled {
		return t
	}
	if strings.TrimSpace(cfg.Token) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		log.Warn("telegram notifier missing bot_token/chat_id; disabled")
		return t
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(cfg.ChatID), 10, 64)
	if err != nil {
		log.Warn("telegram chat_id is not numeric; disabled", logx.String("chat_id", cfg.ChatID))
		return t
	}

	// Send-only bot: no poller, just verify the token via getMe.
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		log.Warn("telegram bot init failed; disabled", logx.Err(err))
		return t
	}

	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}

	t.bot = bot
	t.chatID = chatID
	t.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	t.enabled = true
	return t
}

func (t *Telegram) Name() string  { return "telegram" }
func (t *Telegram) Enabled() bool { return t.enabled }

func (t *Telegram) BuildMessage(ev Event) Message {
	product := escapeMarkdown(orUnknown(ev.ProductName))
	site := escapeMarkdown(orUnknown(ev.SiteName))
	price := escapeMarkdown(ev.Price)
	if price == "" {
		price = "N/A"
	}
	sizes := escapeMarkdown(strings.Join(ev.NewSizes, ", "))

	body := fmt.Sprintf(
		"🔥 *Size Available\\!*\n\n"+
			"📦 *Product*: %s\n"+
			"👟 *Available Sizes*: %s\n"+
			"🏪 *Site*: %s\n"+
			"💰 *Price*: %s\n\n"+
			"🔗 [View Product](%s)",
		product, sizes, site, price, ev.URL,
	)

	return Message{
		Title: "Size Available: " + orUnknown(ev.ProductName),
		Body:  body,
		URL:   ev.URL,
	}
}

func (t *Telegram) Send(ctx context.Context, msg Message) error {
	if !t.enabled {
		return fmt.Errorf("telegram notifier is disabled")
	}
	// The limiter honors ctx; telebot itself bounds the HTTP call.
	limCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := t.limiter.Wait(limCtx); err != nil {
		return err
	}

	_, err := t.bot.Send(tele.ChatID(t.chatID), msg.Body, &tele.SendOptions{
		ParseMode: tele.ModeMarkdownV2,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	t.log.Debug("telegram notification sent", logx.String("title", msg.Title))
	return nil
}

var markdownEscaper = strings.NewReplacer(
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// escapeMarkdown escapes MarkdownV2 special characters in user-ish text.
func escapeMarkdown(s string) string {
	if s == "" {
		return ""
	}
	return markdownEscaper.Replace(s)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
