package logger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yndnr/sesskeep/internal/core/domain"
)

// Redacted replaces the value of a secret attribute.
const Redacted = "[redacted]"

const generatedIDPrefix = domain.SessionIDPrefix

// Attribute key fragments that mark a value as secret.
var secretFragments = []string{"key", "password", "passwd", "secret", "token", "credential", "dsn"}

// redactHandler rewrites attributes before they reach inner.
type redactHandler struct {
	inner slog.Handler
}

func (h *redactHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	if id := SessionIDFromContext(ctx); id != "" {
		out.AddAttrs(slog.String("session_id", MaskID(id)))
	}
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(scrub(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = scrub(a)
	}
	return &redactHandler{inner: h.inner.WithAttrs(clean)}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{inner: h.inner.WithGroup(name)}
}

func scrub(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		members := a.Value.Group()
		clean := make([]slog.Attr, len(members))
		for i, m := range members {
			clean[i] = scrub(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	case slog.KindString:
		s := a.Value.String()
		switch {
		case isSessionIDKey(a.Key), domain.IsGeneratedSessionID(s):
			return slog.String(a.Key, MaskID(s))
		case s != "" && IsSecretKey(a.Key):
			return slog.String(a.Key, Redacted)
		}
	}
	return a
}

func isSessionIDKey(key string) bool {
	k := strings.ToLower(key)
	return k == "session_id" || strings.HasSuffix(k, "_session_id")
}

// IsSecretKey reports whether an attribute named key must not be logged
// in clear.
func IsSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, f := range secretFragments {
		if strings.Contains(k, f) {
			return true
		}
	}
	return false
}

// MaskID shortens a session id to its first and last four characters.
// The sks- prefix of generated ids is kept; ids of eight characters or
// fewer are hidden entirely.
func MaskID(id string) string {
	body := strings.TrimPrefix(id, generatedIDPrefix)
	prefix := id[:len(id)-len(body)]
	if len(body) <= 8 {
		return prefix + "****"
	}
	return prefix + body[:4] + "..." + body[len(body)-4:]
}
