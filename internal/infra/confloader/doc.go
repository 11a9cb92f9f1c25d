// Package confloader loads the sesskeep configuration.
//
// Values are layered with koanf, later sources overriding earlier ones:
//
//  1. Defaults already present in the target struct
//  2. The YAML configuration file
//  3. SESSKEEP_* environment variables
//  4. Explicit overrides (command-line flags) set with WithOverrides
//
// Environment keys use a double underscore as the path separator so that
// single underscores survive inside field names:
//
//	SESSKEEP_DRIVER=sql-embedded                      -> driver
//	SESSKEEP_SESSION__WRITE_THROUGH=true              -> session.write_through
//	SESSKEEP_DRIVERS__SQL_EMBEDDED__ENCRYPTION_KEY=.. -> drivers.sql-embedded.encryption_key
//
// Under "drivers" the driver name segment maps underscores to dashes.
//
// A Watcher reports writes to the configuration file through fsnotify,
// coalescing editor bursts, so long-running commands can pick up
// runtime-adjustable settings.
package confloader
