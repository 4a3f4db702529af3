package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Nike handles nike.com product pages.
type Nike struct {
	fetcher *Fetcher
}

func NewNike(opts Options) *Nike {
	return &Nike{fetcher: NewFetcher(opts)}
}

func (n *Nike) ID() string { return "nike" }

func (n *Nike) CanHandle(url string) bool {
	return domainIn(url, "nike.com")
}

var nikeNameSelectors = []string{
	`h1[data-testid="product-title"]`,
	"#pdp_product_title",
	".pdp-product-name-title",
	".product-title h1",
}

var nikePriceSelectors = []string{
	`[data-testid="product-price"]`,
	".product-price .sr-only",
	".product-price",
	".price-wrapper .price",
}

func (n *Nike) Extract(ctx context.Context, url string, targetSizes []string) Result {
	res := Result{URL: url, AvailableSizes: SizeSet{}}

	doc, err := n.fetcher.Get(ctx, url)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	idx := NewTargetIndex(targetSizes)

	res.ProductName = firstText(doc, nikeNameSelectors)
	if res.ProductName == "" {
		res.ProductName = findProductName(doc)
	}
	res.Price = firstPriceText(doc, nikePriceSelectors)
	if res.Price == "" {
		res.Price = findPrice(doc)
	}

	available := nikeSizeInputs(doc, idx)
	if len(available) == 0 {
		available = scanSizeElements(doc, idx)
	}

	res.AvailableSizes = available
	res.InStock = len(available) > 0
	res.Metadata = map[string]string{"extractor": "nike", "domain": Domain(url)}
	return res
}

// nikeSizeInputs reads the size picker: input[name="skuAndSize"] radio
// buttons whose label carries the size text. Disabled inputs are sold out.
func nikeSizeInputs(doc *goquery.Document, idx TargetIndex) SizeSet {
	found := SizeSet{}
	doc.Find(`input[name="skuAndSize"]`).Each(func(_ int, input *goquery.Selection) {
		if _, disabled := input.Attr("disabled"); disabled {
			return
		}
		id, _ := input.Attr("id")
		if id == "" {
			return
		}
		// Matched by attribute rather than an interpolated selector so an
		// odd id cannot break the query.
		label := doc.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			forAttr, _ := l.Attr("for")
			return forAttr == id
		}).First()
		if target, ok := idx.Match(label.Text()); ok {
			found.Add(target)
		}
	})
	return found
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstPriceText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		t := strings.TrimSpace(doc.Find(sel).First().Text())
		if t != "" && hasCurrencySymbol(t) {
			return t
		}
	}
	return ""
}
