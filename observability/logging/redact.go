package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces identity-bearing values in log output.
const RedactedValue = "[REDACTED]"

// plainKeys are reward-log attributes that never identify a user.
var plainKeys = map[string]struct{}{
	"service":   {},
	"env":       {},
	"message":   {},
	"severity":  {},
	"timestamp": {},
	"error":     {},
	"reason":    {},
	"component": {},
	"slot":      {},
	"activity":  {},
	"method":    {},
}

// identityKeys are masked by every logger built with Setup even when a caller
// forgets MaskField.
var identityKeys = map[string]struct{}{
	"owner":         {},
	"user":          {},
	"subject":       {},
	"token":         {},
	"secret":        {},
	"authorization": {},
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// MaskField builds a string attribute whose value is replaced with
// RedactedValue unless key is a known non-identifying reward field.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	if _, ok := plainKeys[normalizeKey(key)]; ok {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// maskIdentity is applied by the handler to every attribute.
func maskIdentity(attr slog.Attr) slog.Attr {
	if _, ok := identityKeys[normalizeKey(attr.Key)]; !ok {
		return attr
	}
	if attr.Value.Kind() == slog.KindString && attr.Value.String() == "" {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}
