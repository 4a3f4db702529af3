// Package extract resolves product pages into size availability.
//
// Extractors are per-shop plugins behind a narrow interface; the registry to
// select them is an explicit value injected where needed, never a package
// global.
package extract

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"sort"
	"sync"

	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

// Result is the outcome of one page extraction. Err is a human-readable
// failure description; an empty Err means the extraction succeeded, even if
// no target size was available.
type Result struct {
	URL            string
	ProductName    string
	AvailableSizes SizeSet
	Price          string
	InStock        bool
	Err            string
	Metadata       map[string]string
}

func (r Result) OK() bool { return r.Err == "" }

// Extractor checks one product URL for target size availability.
//
// Extract never panics its way out and never returns a Go error: every
// failure mode is folded into Result.Err so callers treat outcomes uniformly.
type Extractor interface {
	ID() string
	CanHandle(url string) bool
	Extract(ctx context.Context, url string, targetSizes []string) Result
}

// Options carries the per-site fetch settings an extractor is built with.
type Options struct {
	Client    *http.Client
	UserAgent string
	Headers   map[string]string
	Cookies   map[string]string
}

// Factory builds an extractor instance for the given fetch options.
type Factory func(opts Options) Extractor

// Registry holds extractor factories keyed by id and caches built instances
// per (id, options) so repeated cycles reuse HTTP state.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]Extractor
	fallback  string
	log       logx.Logger
}

func NewRegistry(log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		factories: map[string]Factory{},
		instances: map[string]Extractor{},
		log:       log,
	}
}

func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	r.factories[id] = f
	r.mu.Unlock()
	r.log.Debug("extractor registered", logx.String("id", id))
}

// Get returns a (possibly cached) extractor instance for id.
func (r *Registry) Get(id string, opts Options) (Extractor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.factories[id]
	if !ok {
		return nil, false
	}

	key := instanceKey(id, opts)
	if inst, ok := r.instances[key]; ok {
		return inst, true
	}
	inst := f(opts)
	r.instances[key] = inst
	return inst, true
}

// RegisterFallback registers a factory that ForURL only selects when no
// dedicated extractor claims the URL.
func (r *Registry) RegisterFallback(id string, f Factory) {
	r.Register(id, f)
	r.mu.Lock()
	r.fallback = id
	r.mu.Unlock()
}

// ForURL auto-selects the first dedicated extractor that claims the URL,
// falling back to the fallback extractor when none does. Iteration is sorted
// by id so selection is deterministic.
func (r *Registry) ForURL(url string, opts Options) (Extractor, bool) {
	r.mu.Lock()
	fallback := r.fallback
	r.mu.Unlock()

	for _, id := range r.IDs() {
		if id == fallback {
			continue
		}
		inst, ok := r.Get(id, opts)
		if !ok {
			continue
		}
		if inst.CanHandle(url) {
			return inst, true
		}
	}
	if fallback == "" {
		return nil, false
	}
	return r.Get(fallback, opts)
}

func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func instanceKey(id string, opts Options) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%s", id, opts.UserAgent)
	if opts.Client != nil {
		// The client's timeout is part of the fetch behavior; a reloaded
		// timeout must not hit an instance built with the old client.
		_, _ = fmt.Fprintf(h, "|t:%s", opts.Client.Timeout)
	}
	for _, kv := range sortedPairs(opts.Headers) {
		_, _ = fmt.Fprintf(h, "|h:%s=%s", kv[0], kv[1])
	}
	for _, kv := range sortedPairs(opts.Cookies) {
		_, _ = fmt.Fprintf(h, "|c:%s=%s", kv[0], kv[1])
	}
	return fmt.Sprintf("%s:%x", id, h.Sum64())
}

func sortedPairs(m map[string]string) [][2]string {
	out := make([][2]string, 0, len(m))
	for k, v := range m {
		out = append(out, [2]string{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// RegisterBuiltins wires up every extractor this repo ships.
func RegisterBuiltins(r *Registry) {
	r.RegisterFallback("generic", func(opts Options) Extractor { return NewGeneric(opts) })
	r.Register("nike", func(opts Options) Extractor { return NewNike(opts) })
	r.Register("adidas", func(opts Options) Extractor { return NewAdidas(opts) })
	r.Register("mango", func(opts Options) Extractor { return NewMango(opts) })
}
