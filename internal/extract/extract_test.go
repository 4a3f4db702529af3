package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegistryCachesInstances(t *testing.T) {
	t.Parallel()
	r := NewRegistry(logx.Nop())
	built := 0
	r.Register("generic", func(opts Options) Extractor {
		built++
		return NewGeneric(opts)
	})

	opts := Options{UserAgent: "test-agent"}
	if _, ok := r.Get("generic", opts); !ok {
		t.Fatal("Get failed")
	}
	if _, ok := r.Get("generic", opts); !ok {
		t.Fatal("Get failed")
	}
	if built != 1 {
		t.Fatalf("factory built %d instances for identical options, want 1", built)
	}

	// Different fetch options build a fresh instance.
	if _, ok := r.Get("generic", Options{UserAgent: "other"}); !ok {
		t.Fatal("Get failed")
	}
	if built != 2 {
		t.Fatalf("factory built %d instances, want 2", built)
	}

	if _, ok := r.Get("nope", opts); ok {
		t.Fatal("Get returned an unregistered extractor")
	}
}

func TestRegistryRebuildsOnClientTimeoutChange(t *testing.T) {
	t.Parallel()
	r := NewRegistry(logx.Nop())
	var clients []*http.Client
	r.Register("generic", func(opts Options) Extractor {
		clients = append(clients, opts.Client)
		return NewGeneric(opts)
	})

	// A reloaded fetch timeout arrives as a fresh client; the cached
	// instance built with the old one must not be reused.
	old := &http.Client{Timeout: 30 * time.Second}
	if _, ok := r.Get("generic", Options{Client: old, UserAgent: "test-agent"}); !ok {
		t.Fatal("Get failed")
	}
	fresh := &http.Client{Timeout: 1 * time.Second}
	if _, ok := r.Get("generic", Options{Client: fresh, UserAgent: "test-agent"}); !ok {
		t.Fatal("Get failed")
	}

	if len(clients) != 2 {
		t.Fatalf("factory built %d instances across a timeout change, want 2", len(clients))
	}
	if clients[1] != fresh {
		t.Fatal("second instance was not built with the new client")
	}

	// Same timeout still hits the cache.
	if _, ok := r.Get("generic", Options{Client: fresh, UserAgent: "test-agent"}); !ok {
		t.Fatal("Get failed")
	}
	if len(clients) != 2 {
		t.Fatalf("factory built %d instances for an identical client, want 2", len(clients))
	}
}

func TestRegistryForURL(t *testing.T) {
	t.Parallel()
	r := NewRegistry(logx.Nop())
	RegisterBuiltins(r)

	ex, ok := r.ForURL("https://www.nike.com/t/shoe", Options{})
	if !ok || ex.ID() != "nike" {
		t.Fatalf("ForURL picked %v, want nike", ex)
	}

	ex, ok = r.ForURL("https://www.adidas.de/shoe", Options{})
	if !ok || ex.ID() != "adidas" {
		t.Fatalf("ForURL picked %v, want adidas", ex)
	}

	gen, ok := r.ForURL("https://unknown-shop.test/p", Options{})
	if !ok || gen.ID() != "generic" {
		t.Fatalf("ForURL fallback = %v, want generic", gen)
	}
}

const genericHTML = `<!DOCTYPE html>
<html><head><title>ignored</title></head><body>
<h1 class="product-title">Trail Runner 3</h1>
<p class="price">$129.99</p>
<section id="size-picker">
  <button>US 9</button>
  <button disabled>US 10</button>
  <button class="size-chip sold-out">US 11</button>
</section>
</body></html>`

func TestGenericExtractor(t *testing.T) {
	t.Parallel()
	srv := serveHTML(t, genericHTML)

	g := NewGeneric(Options{Client: srv.Client()})
	res := g.Extract(context.Background(), srv.URL, []string{"US 9", "US 10", "US 11"})
	if !res.OK() {
		t.Fatalf("Extract failed: %s", res.Err)
	}
	if res.ProductName != "Trail Runner 3" {
		t.Errorf("ProductName = %q", res.ProductName)
	}
	if res.Price != "$129.99" {
		t.Errorf("Price = %q", res.Price)
	}
	if !res.AvailableSizes.Has("US 9") {
		t.Errorf("US 9 missing from %v", res.AvailableSizes)
	}
	if res.AvailableSizes.Has("US 10") || res.AvailableSizes.Has("US 11") {
		t.Errorf("sold-out sizes reported available: %v", res.AvailableSizes)
	}
	if !res.InStock {
		t.Error("InStock = false with an available size")
	}
}

const selectHTML = `<!DOCTYPE html>
<html><body>
<h1>Everyday Sneaker</h1>
<select name="product-size">
  <option>Choose a size</option>
  <option>EU 42</option>
  <option disabled>EU 43</option>
</select>
</body></html>`

func TestGenericExtractorSelectDropdown(t *testing.T) {
	t.Parallel()
	srv := serveHTML(t, selectHTML)

	g := NewGeneric(Options{Client: srv.Client()})
	res := g.Extract(context.Background(), srv.URL, []string{"42", "43"})
	if !res.OK() {
		t.Fatalf("Extract failed: %s", res.Err)
	}
	if !res.AvailableSizes.Has("42") || res.AvailableSizes.Has("43") {
		t.Fatalf("AvailableSizes = %v, want {42}", res.AvailableSizes)
	}
}

const jsonLDHTML = `<!DOCTYPE html>
<html><body>
<h1>Structured Shoe</h1>
<script type="application/ld+json">
{"@type":"Product","offers":[{"size":"US 8","availability":"InStock"},{"size":"US 9","availability":"InStock"}]}
</script>
</body></html>`

func TestGenericExtractorJSONLD(t *testing.T) {
	t.Parallel()
	srv := serveHTML(t, jsonLDHTML)

	g := NewGeneric(Options{Client: srv.Client()})
	res := g.Extract(context.Background(), srv.URL, []string{"US 8"})
	if !res.OK() {
		t.Fatalf("Extract failed: %s", res.Err)
	}
	if !res.AvailableSizes.Has("US 8") {
		t.Fatalf("AvailableSizes = %v, want {US 8}", res.AvailableSizes)
	}
}

const nikeHTML = `<!DOCTYPE html>
<html><body>
<h1 id="pdp_product_title">Air Test 90</h1>
<div data-testid="product-price">$150</div>
<div class="size-grid">
  <input type="radio" name="skuAndSize" id="size-9">
  <label for="size-9">US 9</label>
  <input type="radio" name="skuAndSize" id="size-10" disabled>
  <label for="size-10">US 10</label>
</div>
</body></html>`

func TestNikeExtractor(t *testing.T) {
	t.Parallel()
	srv := serveHTML(t, nikeHTML)

	n := NewNike(Options{Client: srv.Client()})
	res := n.Extract(context.Background(), srv.URL, []string{"US 9", "US 10"})
	if !res.OK() {
		t.Fatalf("Extract failed: %s", res.Err)
	}
	if res.ProductName != "Air Test 90" {
		t.Errorf("ProductName = %q", res.ProductName)
	}
	if res.Price != "$150" {
		t.Errorf("Price = %q", res.Price)
	}
	if !res.AvailableSizes.Has("US 9") || res.AvailableSizes.Has("US 10") {
		t.Fatalf("AvailableSizes = %v, want {US 9}", res.AvailableSizes)
	}
}

func TestNikeExtractorToleratesOddInputIDs(t *testing.T) {
	t.Parallel()
	// Ids with selector metacharacters must not break the label lookup.
	srv := serveHTML(t, `<!DOCTYPE html>
<html><body>
<div class="size-grid">
  <input type="radio" name="skuAndSize" id='sku"9[w]'>
  <label for='sku"9[w]'>US 9</label>
</div>
</body></html>`)

	n := NewNike(Options{Client: srv.Client()})
	res := n.Extract(context.Background(), srv.URL, []string{"US 9"})
	if !res.OK() {
		t.Fatalf("Extract failed: %s", res.Err)
	}
	if !res.AvailableSizes.Has("US 9") {
		t.Fatalf("AvailableSizes = %v, want {US 9}", res.AvailableSizes)
	}
}

func TestExtractReportsFetchErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	g := NewGeneric(Options{Client: srv.Client()})
	res := g.Extract(context.Background(), srv.URL, []string{"9"})
	if res.OK() {
		t.Fatal("Extract succeeded against a 503")
	}
	if res.Err == "" {
		t.Fatal("Err is empty for a failed fetch")
	}
}

func TestFetcherSendsHeadersAndCookies(t *testing.T) {
	t.Parallel()
	var gotUA, gotHeader, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Custom")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(Options{
		Client:    srv.Client(),
		UserAgent: "test-agent",
		Headers:   map[string]string{"X-Custom": "yes"},
		Cookies:   map[string]string{"session": "abc"},
	})
	if _, err := f.Get(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if gotUA != "test-agent" || gotHeader != "yes" || gotCookie != "abc" {
		t.Fatalf("request fields = %q %q %q", gotUA, gotHeader, gotCookie)
	}
}
