package notify

import (
	"fmt"
	"strings"
)

// FormatMessage renders the standard alert body shared by notifiers that
// have no channel-specific formatting needs.
func FormatMessage(ev Event) Message {
	product := ev.ProductName
	if product == "" {
		product = "Unknown"
	}
	sizes := strings.Join(ev.NewSizes, ", ")
	if sizes == "" {
		sizes = "None"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 Product: %s\n", product)
	fmt.Fprintf(&b, "👟 Available Sizes: %s\n", sizes)
	fmt.Fprintf(&b, "🏪 Site: %s\n", ev.SiteName)
	if ev.Price != "" {
		fmt.Fprintf(&b, "💰 Price: %s\n", ev.Price)
	}
	fmt.Fprintf(&b, "🔗 URL: %s", ev.URL)

	return Message{
		Title: "🔥 Size Available: " + product,
		Body:  b.String(),
		URL:   ev.URL,
	}
}
