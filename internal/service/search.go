package service

import (
	"strings"

	"golang.org/x/text/cases"
)

// matcher does case-insensitive substring matching. A Caser carries state,
// so each matcher owns one and must not be shared between goroutines.
type matcher struct {
	fold   cases.Caser
	needle string
}

func newMatcher(search string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.needle = m.fold.String(strings.TrimSpace(search))
	return m
}

// matches reports whether the needle is empty or found in one of fields
func (m *matcher) matches(fields ...string) bool {
	if m.needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(m.fold.String(f), m.needle) {
			return true
		}
	}
	return false
}
