package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Generic works on shops without a dedicated extractor by stacking several
// detection strategies: common size selectors, size-named select dropdowns,
// and JSON-LD product offers.
type Generic struct {
	fetcher *Fetcher
}

func NewGeneric(opts Options) *Generic {
	return &Generic{fetcher: NewFetcher(opts)}
}

func (g *Generic) ID() string { return "generic" }

// CanHandle is true for any http(s) URL; generic is the fallback of last resort.
func (g *Generic) CanHandle(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (g *Generic) Extract(ctx context.Context, url string, targetSizes []string) Result {
	res := Result{URL: url, AvailableSizes: SizeSet{}}

	doc, err := g.fetcher.Get(ctx, url)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	idx := NewTargetIndex(targetSizes)

	res.ProductName = findProductName(doc)
	res.Price = findPrice(doc)

	available := scanSizeElements(doc, idx)
	for size := range sizesFromSelects(doc, idx) {
		available.Add(size)
	}
	for size := range sizesFromJSONLD(doc, idx) {
		available.Add(size)
	}

	res.AvailableSizes = available
	res.InStock = len(available) > 0
	res.Metadata = map[string]string{"extractor": "generic", "domain": Domain(url)}
	return res
}

// sizesFromSelects inspects <select> elements whose name/id mentions "size".
func sizesFromSelects(doc *goquery.Document, idx TargetIndex) SizeSet {
	found := SizeSet{}
	doc.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		id, _ := sel.Attr("id")
		if !strings.Contains(strings.ToLower(name+id), "size") {
			return
		}
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			target, ok := idx.Match(opt.Text())
			if !ok {
				return
			}
			if !isUnavailable(opt) {
				found.Add(target)
			}
		})
	})
	return found
}

// sizesFromJSONLD parses application/ld+json blocks and collects "size"
// values anywhere in the offer graph.
func sizesFromJSONLD(doc *goquery.Document, idx TargetIndex) SizeSet {
	found := SizeSet{}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}
		for _, raw := range collectSizeValues(data) {
			if target, ok := idx.Match(raw); ok {
				found.Add(target)
			}
		}
	})
	return found
}

func collectSizeValues(data any) []string {
	var out []string
	switch v := data.(type) {
	case map[string]any:
		for k, val := range v {
			if strings.EqualFold(k, "size") {
				if s, ok := val.(string); ok {
					out = append(out, s)
					continue
				}
			}
			out = append(out, collectSizeValues(val)...)
		}
	case []any:
		for _, item := range v {
			out = append(out, collectSizeValues(item)...)
		}
	}
	return out
}
