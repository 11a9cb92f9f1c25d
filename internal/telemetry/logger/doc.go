// Package logger builds the slog loggers used by sesskeep.
//
// Every logger returned by New sits on a redacting handler: attributes
// that look like secrets (encryption keys, passwords, DSNs) are replaced
// and session ids are partially masked, including ids carried in a
// context through WithSessionID. The level is shared process-wide so the
// sweep daemon can adjust it on a configuration reload.
package logger
