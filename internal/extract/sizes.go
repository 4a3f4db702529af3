package extract

import (
	"sort"
	"strings"
)

// SizeSet is an unordered set of size labels.
type SizeSet map[string]struct{}

func NewSizeSet(sizes ...string) SizeSet {
	s := make(SizeSet, len(sizes))
	for _, v := range sizes {
		s[v] = struct{}{}
	}
	return s
}

func (s SizeSet) Has(size string) bool {
	_, ok := s[size]
	return ok
}

func (s SizeSet) Add(size string) { s[size] = struct{}{} }

// Diff returns the sizes present in s but not in prev.
func (s SizeSet) Diff(prev SizeSet) SizeSet {
	out := SizeSet{}
	for v := range s {
		if _, ok := prev[v]; !ok {
			out[v] = struct{}{}
		}
	}
	return out
}

func (s SizeSet) Equal(other SizeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy so callers can hand out snapshots.
func (s SizeSet) Clone() SizeSet {
	out := make(SizeSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Sorted returns the labels in stable order for logs and messages.
func (s SizeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s SizeSet) String() string { return strings.Join(s.Sorted(), ", ") }

var sizePrefixes = []string{"US ", "EU ", "UK ", "US", "EU", "UK"}

// NormalizeSize canonicalizes a size label for comparison: uppercase, region
// prefixes stripped, whitespace collapsed. "US 9.5" and "9.5" compare equal.
func NormalizeSize(raw string) string {
	n := strings.ToUpper(strings.TrimSpace(raw))
	if n == "" {
		return ""
	}
	for _, p := range sizePrefixes {
		n = strings.ReplaceAll(n, p, "")
	}
	n = strings.Join(strings.Fields(n), " ")
	return strings.TrimSpace(n)
}

// TargetIndex maps normalized labels back to the labels the configuration
// used, so results always report sizes in the caller's own vocabulary.
type TargetIndex map[string]string

func NewTargetIndex(targetSizes []string) TargetIndex {
	idx := make(TargetIndex, len(targetSizes))
	for _, t := range targetSizes {
		if n := NormalizeSize(t); n != "" {
			idx[n] = t
		}
	}
	return idx
}

// Match returns the original target label matching the candidate text, if any.
// A candidate matches when either normalized form contains the other, which
// tolerates shop-side decorations like "9.5 (low stock)".
func (idx TargetIndex) Match(candidate string) (string, bool) {
	n := NormalizeSize(candidate)
	if n == "" {
		return "", false
	}
	if orig, ok := idx[n]; ok {
		return orig, true
	}
	for norm, orig := range idx {
		if strings.Contains(n, norm) || strings.Contains(norm, n) {
			return orig, true
		}
	}
	return "", false
}
