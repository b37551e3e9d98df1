// Package textutil normalizes drug names before they are matched against
// the master tracker.
package textutil

import (
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// SaltSet strips configured salt qualifiers from drug names. Matching is
// whole-word and case-insensitive: "Amoxicillin Sodium" loses "Sodium" but
// "Sodiumchloride Complex" is untouched.
type SaltSet struct {
	patterns []*regexp.Regexp
}

// NewSaltSet compiles word-boundary patterns for each salt. Empty entries
// are skipped; salts containing regexp metacharacters are quoted.
func NewSaltSet(salts []string) (*SaltSet, error) {
	set := &SaltSet{patterns: make([]*regexp.Regexp, 0, len(salts))}
	for _, salt := range salts {
		trimmed := strings.TrimSpace(salt)
		if trimmed == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(trimmed) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile salt pattern %q: %w", trimmed, err)
		}
		set.patterns = append(set.patterns, pattern)
	}
	return set, nil
}

// Normalize removes every salt occurrence from the name and collapses the
// leftover whitespace.
func (s *SaltSet) Normalize(name string) string {
	result := name
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, "")
	}
	return CollapseSpaces(result)
}

// CollapseSpaces trims the string and squeezes internal whitespace runs to
// single spaces.
func CollapseSpaces(value string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " "))
}

// FoldLines joins multi-line cell values into a single space-separated
// string. Workbook cells sometimes carry embedded newlines.
func FoldLines(value string) string {
	replaced := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(value)
	return CollapseSpaces(replaced)
}
