package filtering

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gobwas/glob"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
)

type pattern struct {
	raw string
	g   glob.Glob
}

// NameFilter holds compiled include and exclude patterns
type NameFilter struct {
	include []pattern
	exclude []pattern
}

// NewNameFilter compiles the patterns. Passing no separators to the compiler
// lets '*' match across slashes.
func NewNameFilter(include, exclude []string) (*NameFilter, error) {
	f := &NameFilter{}
	var err error
	if f.include, err = compile(include); err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	if f.exclude, err = compile(exclude); err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return f, nil
}

func compile(raw []string) ([]pattern, error) {
	out := make([]pattern, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, pattern{raw: p, g: g})
	}
	return out, nil
}

// Empty reports whether the filter lets everything through
func (f *NameFilter) Empty() bool {
	return f == nil || (len(f.include) == 0 && len(f.exclude) == 0)
}

// ShouldInclude decides on a set of names; any of them matching a pattern counts.
// The reason names the deciding pattern.
func (f *NameFilter) ShouldInclude(names ...string) (bool, string) {
	if f.Empty() {
		return true, "no patterns"
	}
	lowered := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			lowered = append(lowered, strings.ToLower(n))
		}
	}

	if p, ok := firstMatch(f.exclude, lowered); ok {
		return false, fmt.Sprintf("excluded by pattern '%s'", p)
	}
	if len(f.include) == 0 {
		return true, "not excluded"
	}
	if p, ok := firstMatch(f.include, lowered); ok {
		return true, fmt.Sprintf("included by pattern '%s'", p)
	}
	return false, "no match found in include patterns"
}

func firstMatch(patterns []pattern, names []string) (string, bool) {
	for _, p := range patterns {
		for _, n := range names {
			if p.g.Match(n) {
				return p.raw, true
			}
		}
	}
	return "", false
}

// namesOf are the names a bundle is matched by
func namesOf(src bundles.Source) []string {
	names := []string{src.Title(), src.Name()}
	if m := src.Manifest(); m != nil {
		names = append(names, m.Name)
	}
	return names
}

// Matches reports whether the filter selects src
func (f *NameFilter) Matches(src bundles.Source) bool {
	ok, reason := f.ShouldInclude(namesOf(src)...)
	if !f.Empty() {
		slog.Debug("Bundle filter decision", "bundle_uid", src.UID(), "included", ok, "reason", reason)
	}
	return ok
}

// Apply keeps the sources the filter selects, in order
func (f *NameFilter) Apply(sources []bundles.Source) []bundles.Source {
	if f.Empty() {
		return sources
	}
	out := make([]bundles.Source, 0, len(sources))
	for _, src := range sources {
		if f.Matches(src) {
			out = append(out, src)
		}
	}
	return out
}

// Predicate adapts the filter to remote bundle selection
func (f *NameFilter) Predicate() func(bundles.Remote) bool {
	return func(r bundles.Remote) bool {
		return f.Matches(r)
	}
}
