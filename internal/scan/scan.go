// Package scan implements the deny-list content gate applied to uploaded scripts.
package scan

import (
	"fmt"
	"regexp"
)

// DefaultDenyList contains call patterns that are never allowed in hosted
// scripts: process execution, dynamic code evaluation and obfuscation
// primitives.
var DefaultDenyList = []string{
	"exec", "shell_exec", "system", "passthru",
	"proc_open", "popen", "curl_multi_exec",
	"parse_ini_file", "show_source", "eval", "assert",
	"base64_decode", "gzinflate", "create_function",
}

// Scanner matches uploaded content against a fixed set of disallowed
// function-call patterns. It is pure and safe for concurrent use.
type Scanner struct {
	patterns map[string]*regexp.Regexp
	names    []string
}

// NewScanner compiles a case-insensitive matcher for every deny-list entry.
// Entries are matched as function calls: a word boundary, the name, optional
// whitespace, then an opening parenthesis.
func NewScanner(denyList []string) *Scanner {
	s := &Scanner{
		patterns: make(map[string]*regexp.Regexp, len(denyList)),
		names:    make([]string, 0, len(denyList)),
	}

	for _, name := range denyList {
		s.patterns[name] = regexp.MustCompile(fmt.Sprintf(`(?i)\b%s\s*\(`, regexp.QuoteMeta(name)))
		s.names = append(s.names, name)
	}

	return s
}

// Scan returns the deny-list entries found in content, in deny-list order.
// An empty result means the content is accepted.
func (s *Scanner) Scan(content []byte) []string {
	var found []string
	for _, name := range s.names {
		if s.patterns[name].Match(content) {
			found = append(found, name)
		}
	}

	return found
}
