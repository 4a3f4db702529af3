package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Mango handles shop.mango.com product pages.
//
// Mango's bot detection rejects desktop browser headers; a mobile user agent
// goes through. Size data lives in Next.js script payloads rather than the
// rendered DOM, so the HTML scan is only a fallback.
type Mango struct {
	fetcher *Fetcher
}

const mangoMobileUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func NewMango(opts Options) *Mango {
	opts.UserAgent = mangoMobileUA
	merged := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "de-de",
	}
	for k, v := range opts.Headers {
		merged[k] = v
	}
	opts.Headers = merged
	return &Mango{fetcher: NewFetcher(opts)}
}

func (m *Mango) ID() string { return "mango" }

func (m *Mango) CanHandle(url string) bool {
	return domainIn(url, "mango.com", "shop.mango.com")
}

var mangoNameSelectors = []string{
	"h1.product-name",
	".product-title h1",
	".pdp-product-name",
	`h1[data-testid="product-name"]`,
	".product-display-name h1",
}

var mangoPriceSelectors = []string{
	".product-price .price",
	".price-current",
	".price-now",
	`[data-testid="price"]`,
	".product-price-current",
}

func (m *Mango) Extract(ctx context.Context, url string, targetSizes []string) Result {
	res := Result{URL: url, AvailableSizes: SizeSet{}}

	doc, err := m.fetcher.Get(ctx, url)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	idx := NewTargetIndex(targetSizes)

	res.ProductName = firstText(doc, mangoNameSelectors)
	if res.ProductName == "" {
		res.ProductName = findProductName(doc)
	}
	res.Price = firstPriceText(doc, mangoPriceSelectors)
	if res.Price == "" {
		res.Price = findPrice(doc)
	}

	available := mangoScriptSizes(doc, idx)
	if len(available) == 0 {
		available = scanSizeElements(doc, idx)
	}

	res.AvailableSizes = available
	res.InStock = len(available) > 0
	res.Metadata = map[string]string{"extractor": "mango", "domain": Domain(url)}
	return res
}

// Size entries inside Mango's script payloads look like
// {"label":"M","available":true,...} or use shortDescription for the label.
var mangoSizeEntryRe = regexp.MustCompile(`\{[^{}]*"(?:label|shortDescription)"\s*:\s*"([^"]+)"[^{}]*\}`)

func mangoScriptSizes(doc *goquery.Document, idx TargetIndex) SizeSet {
	found := SizeSet{}
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		content := sel.Text()
		if !strings.Contains(content, "productInfo") {
			return
		}
		for _, match := range mangoSizeEntryRe.FindAllStringSubmatch(content, -1) {
			entry, label := match[0], match[1]
			if strings.Contains(entry, `"available":false`) || strings.Contains(entry, `"soldOut":true`) {
				continue
			}
			if target, ok := idx.Match(label); ok {
				found.Add(target)
			}
		}
	})
	return found
}
