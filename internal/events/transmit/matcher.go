// Package transmit lets scripts react to transmitter events, such as a
// command that failed on the line or was superseded by a newer one.
package transmit

import "strings"

// Matcher checks if a value matches a pattern.
// Implementations are immutable and safe for concurrent use.
type Matcher interface {
	Matches(value string) bool
	String() string
}

// matchAny matches any value (wildcard).
type matchAny struct{}

func (matchAny) Matches(string) bool { return true }
func (matchAny) String() string      { return "*" }

// matchExact matches a single exact value.
type matchExact string

func (m matchExact) Matches(value string) bool { return string(m) == value }
func (m matchExact) String() string            { return string(m) }

// matchOneOf matches any value in a set.
type matchOneOf []string

func (m matchOneOf) Matches(value string) bool {
	for _, v := range m {
		if v == value {
			return true
		}
	}
	return false
}

func (m matchOneOf) String() string {
	if len(m) == 0 {
		return "(none)"
	}
	return strings.Join(m, "|")
}

// ParseMatcher creates a Matcher from a string pattern.
// - "*" becomes matchAny (matches everything)
// - "a|b|c" becomes matchOneOf{"a", "b", "c"}; empty segments are skipped
// - anything else becomes matchExact (exact match)
func ParseMatcher(pattern string) Matcher {
	if pattern == "*" {
		return matchAny{}
	}
	if !strings.Contains(pattern, "|") {
		return matchExact(pattern)
	}
	var result matchOneOf
	for _, part := range strings.Split(pattern, "|") {
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
