package session

import "strings"

// Sanitize returns a copy of the config with keys and passwords masked.
//
// This is used for logging and the CLI's config dump.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg

	sanitized.Drivers.File.EncryptionKey = maskSecret(cfg.Drivers.File.EncryptionKey)
	sanitized.Drivers.SQLEmbedded.EncryptionKey = maskSecret(cfg.Drivers.SQLEmbedded.EncryptionKey)
	sanitized.Drivers.SQLNetworked.EncryptionKey = maskSecret(cfg.Drivers.SQLNetworked.EncryptionKey)
	sanitized.Drivers.SQLNetworked.Password = maskSecret(cfg.Drivers.SQLNetworked.Password)

	if cfg.Drivers.SQLNetworked.Params != nil {
		params := make(map[string]string, len(cfg.Drivers.SQLNetworked.Params))
		for k, v := range cfg.Drivers.SQLNetworked.Params {
			params[k] = v
		}
		sanitized.Drivers.SQLNetworked.Params = params
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
