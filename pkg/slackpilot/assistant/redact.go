// Package assistant – redact.go masks sensitive information in prompts
// before they leave the process.
package assistant

import (
	"fmt"
	"log/slog"
	"regexp"
)

// defaultRedactionRules cover the common PII shapes. Used when redaction is
// enabled and no explicit rules are configured.
var defaultRedactionRules = []RedactionRule{
	{Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, Replacement: "[EMAIL]"},
	{Pattern: `\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`, Replacement: "[PHONE]"},
	{Pattern: `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`, Replacement: "[CREDIT_CARD]"},
	{Pattern: `\b\d{3}[- ]?\d{2}[- ]?\d{4}\b`, Replacement: "[SSN]"},
}

// Redactor applies regexp substitution rules to outgoing text.
type Redactor struct {
	enabled bool
	rules   []redactionRule
}

type redactionRule struct {
	re          *regexp.Regexp
	replacement string
}

// NewRedactor compiles the configured rules. Invalid patterns fail at
// construction, never at request time.
func NewRedactor(cfg RedactionConfig) (*Redactor, error) {
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = defaultRedactionRules
	}

	compiled := make([]redactionRule, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling redaction pattern %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, redactionRule{re: re, replacement: rule.Replacement})
	}

	return &Redactor{enabled: cfg.Enabled, rules: compiled}, nil
}

// Apply masks all rule matches in text. A no-op when redaction is disabled.
func (r *Redactor) Apply(text string) string {
	if !r.enabled {
		return text
	}
	for _, rule := range r.rules {
		text = rule.re.ReplaceAllString(text, rule.replacement)
	}
	return text
}

// MustRedactor is NewRedactor for callers that already validated config;
// it logs and falls back to a disabled redactor on compile failure.
func MustRedactor(cfg RedactionConfig, logger *slog.Logger) *Redactor {
	r, err := NewRedactor(cfg)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("disabling redaction", "error", err)
		return &Redactor{}
	}
	return r
}
