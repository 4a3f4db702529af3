package extract

import (
	"context"
)

// Adidas handles adidas.com (and regional domains) product pages.
// The shop rejects bare clients, so the fetcher always sends a full set of
// browser-ish headers in addition to whatever the site config supplies.
type Adidas struct {
	fetcher *Fetcher
}

var adidasHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9,de;q=0.8",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
}

func NewAdidas(opts Options) *Adidas {
	merged := make(map[string]string, len(adidasHeaders)+len(opts.Headers))
	for k, v := range adidasHeaders {
		merged[k] = v
	}
	for k, v := range opts.Headers {
		merged[k] = v
	}
	opts.Headers = merged
	return &Adidas{fetcher: NewFetcher(opts)}
}

func (a *Adidas) ID() string { return "adidas" }

func (a *Adidas) CanHandle(url string) bool {
	return domainIn(url, "adidas.com", "adidas.de", "adidas.co.uk")
}

var adidasNameSelectors = []string{
	`h1[data-auto-id="product-title"]`,
	".product-title h1",
	".pdp-product-name",
	"h1.name___JkMOq",
}

var adidasPriceSelectors = []string{
	`[data-auto-id="product-price"]`,
	".price .gl-price",
	".product-price",
	".price-wrapper .price",
}

func (a *Adidas) Extract(ctx context.Context, url string, targetSizes []string) Result {
	res := Result{URL: url, AvailableSizes: SizeSet{}}

	doc, err := a.fetcher.Get(ctx, url)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	idx := NewTargetIndex(targetSizes)

	res.ProductName = firstText(doc, adidasNameSelectors)
	if res.ProductName == "" {
		res.ProductName = findProductName(doc)
	}
	res.Price = firstPriceText(doc, adidasPriceSelectors)
	if res.Price == "" {
		res.Price = findPrice(doc)
	}

	res.AvailableSizes = scanSizeElements(doc, idx)
	res.InStock = len(res.AvailableSizes) > 0
	res.Metadata = map[string]string{"extractor": "adidas", "domain": Domain(url)}
	return res
}
