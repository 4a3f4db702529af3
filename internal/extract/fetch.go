package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultFetchTimeout = 30 * time.Second

// Fetcher fetches product pages and hands back parsed documents.
// One Fetcher per extractor instance; headers/cookies are fixed at build time.
type Fetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	cookies   map[string]string
}

func NewFetcher(opts Options) *Fetcher {
	c := opts.Client
	if c == nil {
		c = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Fetcher{
		client:    c,
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		cookies:   opts.Cookies,
	}
}

// Get fetches the URL and parses the response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	for k, v := range f.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Domain extracts the lowercased host from a URL ("" when unparsable).
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func domainIn(rawURL string, suffixes ...string) bool {
	d := Domain(rawURL)
	if d == "" {
		return false
	}
	for _, s := range suffixes {
		if d == s || strings.HasSuffix(d, "."+s) {
			return true
		}
	}
	return false
}
