// Package security scrubs credentials from log output and display strings.
package security

import (
	"regexp"
	"strings"
	"sync"
)

// Placeholder replaces every redacted secret.
const Placeholder = "[REDACTED]"

// keyPatterns match credential shapes an OpenAI-compatible endpoint accepts.
var keyPatterns = []*regexp.Regexp{
	// sk-..., sk-proj-..., sk-or-v1-...
	regexp.MustCompile(`sk-[A-Za-z0-9_\-]{16,}`),
	// Authorization header values echoed by clients or proxies.
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]{8,}`),
}

// Redactor removes known key shapes and configured literal secrets from text.
// It is safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	literals []string
}

// NewRedactor creates a redactor that also hides each non-empty literal.
func NewRedactor(literals ...string) *Redactor {
	r := &Redactor{}
	for _, l := range literals {
		r.Add(l)
	}
	return r
}

// Add registers a literal secret. Values shorter than four characters are
// ignored; hiding them would mangle ordinary text.
func (r *Redactor) Add(secret string) {
	if len(secret) < 4 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact returns s with every secret replaced by Placeholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	literals := r.literals
	r.mu.RUnlock()

	// Literals first: a configured key may not match any pattern.
	for _, lit := range literals {
		s = strings.ReplaceAll(s, lit, Placeholder)
	}
	for _, p := range keyPatterns {
		s = p.ReplaceAllString(s, Placeholder)
	}
	return s
}

// Mask shows only the last four characters of a credential, for display in
// status output. Empty input yields "(none)".
func Mask(secret string) string {
	switch n := len(secret); {
	case n == 0:
		return "(none)"
	case n <= 8:
		return "****"
	default:
		return "****" + secret[n-4:]
	}
}
