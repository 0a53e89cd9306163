package suite

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Filter selects scenarios by title. Patterns without glob metacharacters
// match as substrings, as the runner's grep did.
type Filter struct {
	include glob.Glob
	exclude glob.Glob
}

// NewFilter compiles grep and invert. Empty patterns are ignored.
func NewFilter(grep, invert string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.include, err = compile(grep); err != nil {
		return nil, fmt.Errorf("GREP: %w", err)
	}
	if f.exclude, err = compile(invert); err != nil {
		return nil, fmt.Errorf("GREP_INVERT: %w", err)
	}
	return f, nil
}

func compile(pattern string) (glob.Glob, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		pattern = "*" + pattern + "*"
	}
	return glob.Compile(pattern)
}

// Match reports whether title runs.
func (f *Filter) Match(title string) bool {
	if f == nil {
		return true
	}
	if f.include != nil && !f.include.Match(title) {
		return false
	}
	if f.exclude != nil && f.exclude.Match(title) {
		return false
	}
	return true
}
