package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// sensitiveKeys are attribute names whose values are always replaced.
var sensitiveKeys = map[string]bool{
	"api_key":        true,
	"apikey":         true,
	"x-api-key":      true,
	"x-goog-api-key": true,
	"authorization":  true,
	"access_token":   true,
	"password":       true,
	"secret":         true,
}

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			// OpenAI and Anthropic style keys
			{regexp.MustCompile(`sk-(?:ant-)?[A-Za-z0-9_\-]{8,}`), "sk-***"},
			// Google API keys
			{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`), "AIza***"},
			{regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer ***"},
			// key= query parameters in URLs
			{regexp.MustCompile(`([?&]key=)[^&\s]+`), "${1}***"},
		},
	}
}

// RedactString applies every pattern to s.
func (r *Redactor) RedactString(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}
