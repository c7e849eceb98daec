package logging

import (
	"regexp"
)

const redactedPlaceholder = "[REDACTED]"

// Sanitizer redacts credentials from log output and crash records.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with the default credential patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: compilePatterns(defaultPatterns),
		redacted: redactedPlaceholder,
	}
}

var defaultPatterns = []string{
	`sk-ant-[a-zA-Z0-9-]{40,}`,       // Anthropic
	`sk-[A-Za-z0-9]{20,}`,            // OpenAI
	`AIza[a-zA-Z0-9_-]{35}`,          // Google
	`gh[pousr]_[A-Za-z0-9]{36}`,      // GitHub tokens
	`AKIA[0-9A-Z]{16}`,               // AWS access key
	`xox[baprs]-[0-9a-zA-Z-]{10,}`,   // Slack
	`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
	`(?i)(api[_-]?key|secret|token)["'\s:=]+[a-zA-Z0-9_-]{20,}`,
	`(?i)password["'\s:=]+[^\s"']{8,}`,
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return result
}

// SanitizeArgs redacts each element of a command line independently, so a
// replacement never spans two arguments.
func (s *Sanitizer) SanitizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = s.Sanitize(a)
	}
	return out
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}
