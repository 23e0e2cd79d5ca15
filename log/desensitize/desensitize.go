// Package desensitize redacts credentials and personal data from log output.
package desensitize

import (
	"slices"
	"sync"
)

// Hook applies an ordered set of rules to log lines.
type Hook struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewHook creates a hook preloaded with rules.
func NewHook(rules ...Rule) *Hook {
	h := &Hook{}
	h.Add(rules...)
	return h
}

// Add appends rules; a rule with an existing name replaces the old one in place.
func (h *Hook) Add(rules ...Rule) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, rule := range rules {
		if rule == nil {
			continue
		}
		idx := slices.IndexFunc(h.rules, func(r Rule) bool { return r.Name() == rule.Name() })
		if idx >= 0 {
			h.rules[idx] = rule
			continue
		}
		h.rules = append(h.rules, rule)
	}
}

// AddContentRule compiles and adds a content rule.
func (h *Hook) AddContentRule(name, pattern, replacement string) error {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		return err
	}
	h.Add(rule)
	return nil
}

// AddFieldRule compiles and adds a JSON field rule.
func (h *Hook) AddFieldRule(name, field, replacement string) error {
	rule, err := NewFieldRule(name, field, replacement)
	if err != nil {
		return err
	}
	h.Add(rule)
	return nil
}

// Remove drops the named rule.
func (h *Hook) Remove(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.rules)
	h.rules = slices.DeleteFunc(h.rules, func(r Rule) bool { return r.Name() == name })
	return len(h.rules) != n
}

// Rule returns the named rule.
func (h *Hook) Rule(name string) (Rule, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.rules {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// Names lists rule names in application order.
func (h *Hook) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.rules))
	for _, r := range h.rules {
		names = append(names, r.Name())
	}
	return names
}

// Len returns the number of rules.
func (h *Hook) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rules)
}

// Desensitize applies every enabled rule to s.
func (h *Hook) Desensitize(s string) string {
	if s == "" {
		return s
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.rules {
		if r.Enabled() {
			s = r.Process(s)
		}
	}
	return s
}
