package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRedact_SecretAttributes(t *testing.T) {
	l, buf := newBuffered(t, "json", "info")

	l.Info("opening store",
		"key", "a3f1",
		"mysql_password", "hunter2",
		"dsn", "user:pw@tcp(db)/web",
		"table", "sessions",
		"api_token", "",
	)

	entry := decodeLine(t, buf)
	for _, k := range []string{"key", "mysql_password", "dsn"} {
		if entry[k] != Redacted {
			t.Errorf("%s = %v, want %q", k, entry[k], Redacted)
		}
	}
	if entry["table"] != "sessions" {
		t.Errorf("table = %v", entry["table"])
	}
	if entry["api_token"] != "" {
		t.Errorf("empty secret should stay empty, got %v", entry["api_token"])
	}
}

func TestRedact_SessionIDs(t *testing.T) {
	l, buf := newBuffered(t, "json", "info")

	l.Info("session id regenerated",
		"old_session_id", "sks-01hq3k5v7x9z2b4d6f8h0j2m4n",
		"new_session_id", "host-issued-identifier",
		"note", "sks-01hq3k5v7x9z2b4d6f8h0j2m4p",
		"label", "sks-team",
	)

	entry := decodeLine(t, buf)
	if got := entry["old_session_id"]; got != "sks-01hq...2m4n" {
		t.Errorf("old_session_id = %v", got)
	}
	if got := entry["new_session_id"]; got != "host...fier" {
		t.Errorf("new_session_id = %v", got)
	}
	if got := entry["note"]; got != "sks-01hq...2m4p" {
		t.Errorf("generated id under another key = %v", got)
	}
	if got := entry["label"]; got != "sks-team" {
		t.Errorf("non-id value with the id prefix was masked: %v", got)
	}
}

func TestRedact_WithAttrsAndGroups(t *testing.T) {
	l, buf := newBuffered(t, "json", "info")

	l.With("secret", "s3cr3t").
		WithGroup("store").
		Info("configured", slog.Group("mysql", slog.String("password", "pw"), slog.String("addr", "db:3306")))

	out := buf.String()
	if strings.Contains(out, "s3cr3t") || strings.Contains(out, `"pw"`) {
		t.Fatalf("secret leaked: %s", out)
	}
	if !strings.Contains(out, `"addr":"db:3306"`) {
		t.Errorf("non-secret group member dropped: %s", out)
	}
}

func TestRedact_SessionIDFromContext(t *testing.T) {
	l, buf := newBuffered(t, "text", "info")

	ctx := WithSessionID(context.Background(), "sks-01hq3k5v7x9z2b4d6f8h0j2m4n")
	l.InfoContext(ctx, "session destroyed")
	if !strings.Contains(buf.String(), "session_id=sks-01hq...2m4n") {
		t.Errorf("context session id missing: %q", buf.String())
	}

	buf.Reset()
	l.InfoContext(context.Background(), "gc")
	if strings.Contains(buf.String(), "session_id") {
		t.Errorf("unexpected session_id without context value: %q", buf.String())
	}
}

func TestSessionIDFromContext(t *testing.T) {
	if got := SessionIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
	ctx := WithSessionID(context.Background(), "abc")
	if got := SessionIDFromContext(ctx); got != "abc" {
		t.Errorf("SessionIDFromContext() = %q", got)
	}
}

func TestMaskID(t *testing.T) {
	tests := map[string]string{
		"sks-01hq3k5v7x9z2b4d6f8h0j2m4n": "sks-01hq...2m4n",
		"sks-short":                      "sks-****",
		"abcdefgh":                       "****",
		"abcdefghi":                      "abcd...fghi",
		"":                               "****",
	}
	for in, want := range tests {
		if got := MaskID(in); got != want {
			t.Errorf("MaskID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSecretKey(t *testing.T) {
	for _, k := range []string{"key", "EncryptionKey", "db_password", "passwd", "client_secret", "auth_token", "credentials", "DSN"} {
		if !IsSecretKey(k) {
			t.Errorf("IsSecretKey(%q) = false", k)
		}
	}
	for _, k := range []string{"table", "driver", "session_id", "count"} {
		if IsSecretKey(k) {
			t.Errorf("IsSecretKey(%q) = true", k)
		}
	}
}
