package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Shared DOM heuristics used by every extractor as a fallback path.
// Shop-specific extractors try their own selectors first.

var productNameSelectors = []string{
	`h1[data-testid="product-title"]`,
	"h1.product-title",
	"h1.pdp-product-name",
	".product-name h1",
	".product-title",
	"h1",
	`[data-testid="product-name"]`,
	".product-display-name",
}

func findProductName(doc *goquery.Document) string {
	for _, sel := range productNameSelectors {
		name := strings.TrimSpace(doc.Find(sel).First().Text())
		// Reject junk like "x" picked up from bare h1 matches.
		if len(name) > 3 {
			return name
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

var priceSelectors = []string{
	".price",
	".product-price",
	`[data-testid="price"]`,
	".current-price",
	".sale-price",
	".price-current",
	".price-now",
}

func findPrice(doc *goquery.Document) string {
	for _, sel := range priceSelectors {
		price := strings.TrimSpace(doc.Find(sel).First().Text())
		if price != "" && hasCurrencySymbol(price) {
			return price
		}
	}
	return ""
}

func hasCurrencySymbol(s string) bool {
	return strings.ContainsAny(s, "$€£¥")
}

var unavailableClasses = []string{"disabled", "sold-out", "unavailable", "out-of-stock"}

// isUnavailable reports whether the element is marked as not purchasable:
// a disabled attribute, or an unavailability class on it or its parent.
func isUnavailable(sel *goquery.Selection) bool {
	if _, disabled := sel.Attr("disabled"); disabled {
		return true
	}
	if hasUnavailableClass(sel) {
		return true
	}
	return hasUnavailableClass(sel.Parent())
}

func hasUnavailableClass(sel *goquery.Selection) bool {
	class, _ := sel.Attr("class")
	class = strings.ToLower(class)
	for _, c := range unavailableClasses {
		if strings.Contains(class, c) {
			return true
		}
	}
	return false
}

// scanSizeElements walks common size-bearing elements and collects target
// sizes that appear available.
func scanSizeElements(doc *goquery.Document, idx TargetIndex) SizeSet {
	found := SizeSet{}
	doc.Find("option, button, span, div, label").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" || len(text) > 40 {
			return
		}
		target, ok := idx.Match(text)
		if !ok {
			return
		}
		if !isUnavailable(sel) {
			found.Add(target)
		}
	})
	return found
}
