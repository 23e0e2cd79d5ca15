package desensitize

import (
	"fmt"
	"regexp"
	"sync/atomic"
)

// Rule redacts sensitive parts of a log line.
type Rule interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	Process(s string) string
}

type toggle struct {
	disabled atomic.Bool
}

func (t *toggle) Enabled() bool { return !t.disabled.Load() }

func (t *toggle) SetEnabled(enabled bool) { t.disabled.Store(!enabled) }

// ContentRule replaces every match of a pattern anywhere in the line.
type ContentRule struct {
	toggle
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewContentRule compiles pattern; replacement may reference capture groups.
func NewContentRule(name, pattern, replacement string) (*ContentRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &ContentRule{name: name, pattern: re, replacement: replacement}, nil
}

// MustNewContentRule is NewContentRule for package level rules.
func MustNewContentRule(name, pattern, replacement string) *ContentRule {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *ContentRule) Name() string { return r.name }

func (r *ContentRule) Process(s string) string {
	if !r.Enabled() {
		return s
	}
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// FieldRule masks the string value of a JSON field, matched case-insensitively
// by name. It handles both raw JSON and JSON that was embedded as an escaped
// string inside another JSON document.
type FieldRule struct {
	toggle
	name        string
	field       string
	replacement string
	raw         *regexp.Regexp
	escaped     *regexp.Regexp
}

// NewFieldRule builds a rule that replaces the value of field with replacement.
func NewFieldRule(name, field, replacement string) (*FieldRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if field == "" {
		return nil, fmt.Errorf("field name cannot be empty")
	}

	quoted := regexp.QuoteMeta(field)
	raw, err := regexp.Compile(fmt.Sprintf(`(?i)("%s"\s*:\s*")(?:[^"\\]|\\.)*(")`, quoted))
	if err != nil {
		return nil, fmt.Errorf("failed to compile field pattern: %w", err)
	}
	escaped, err := regexp.Compile(fmt.Sprintf(`(?i)(\\"%s\\"\s*:\s*\\")(?:[^"\\]|\\[^"])*(\\")`, quoted))
	if err != nil {
		return nil, fmt.Errorf("failed to compile escaped field pattern: %w", err)
	}

	return &FieldRule{
		name:        name,
		field:       field,
		replacement: replacement,
		raw:         raw,
		escaped:     escaped,
	}, nil
}

// MustNewFieldRule is NewFieldRule for package level rules.
func MustNewFieldRule(name, field, replacement string) *FieldRule {
	rule, err := NewFieldRule(name, field, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *FieldRule) Name() string { return r.name }

func (r *FieldRule) Process(s string) string {
	if !r.Enabled() {
		return s
	}
	repl := "${1}" + r.replacement + "${2}"
	s = r.raw.ReplaceAllString(s, repl)
	return r.escaped.ReplaceAllString(s, repl)
}
