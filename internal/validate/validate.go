// Package validate decides whether incoming text is a supported media
// URL. Rejected input must cause no side effect at all: callers send no
// reply and no status message.
package validate

import "strings"

// Validator accepts text that looks like a media URL. When
// requiredDomain is non-empty the URL must also contain it, which lets
// a deployment scope itself to a single platform.
type Validator struct {
	requiredDomain string
}

// New creates a Validator. An empty requiredDomain accepts any host.
func New(requiredDomain string) *Validator {
	return &Validator{requiredDomain: strings.ToLower(strings.TrimSpace(requiredDomain))}
}

// Accept reports whether text qualifies as a supported media URL.
// Deterministic, no I/O.
func (v *Validator) Accept(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if !strings.HasPrefix(text, "http") {
		return false
	}
	if v.requiredDomain != "" && !strings.Contains(strings.ToLower(text), v.requiredDomain) {
		return false
	}
	return true
}
