// Package notify delivers size-availability alerts.
//
// Notifiers are plugins behind a small interface; the fan-out in the engine
// treats them uniformly and contains their failures.
package notify

import "context"

// Event describes one batch of newly available sizes for a URL.
// NewSizes carries only sizes that were NOT available on the previous
// successful check, never the full availability set.
type Event struct {
	SiteName    string
	URL         string
	ProductName string
	NewSizes    []string
	Price       string
	Metadata    map[string]string
}

// Message is a rendered notification ready for delivery.
type Message struct {
	Title string
	Body  string
	URL   string
}

// Notifier delivers messages over one channel (Telegram, ...).
//
// Send reports failure through its error return and must never panic across
// this boundary; a disabled notifier is skipped, not an error.
type Notifier interface {
	Name() string
	Enabled() bool
	BuildMessage(ev Event) Message
	Send(ctx context.Context, msg Message) error
}
