package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
const DefaultEnvPrefix = "SESSKEEP_"

// envSeparator splits an environment variable name into path segments.
const envSeparator = "__"

// Layer names reported by Sources.
const (
	SourceFile      = "file"
	SourceEnv       = "env"
	SourceOverrides = "overrides"
)

// Loader merges configuration layers into a struct. Later layers win:
// the YAML file, then SESSKEEP_* variables, then explicit overrides.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
	sources   []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile names the YAML file layer. An empty path skips it.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithOverrides sets the top layer, typically from command-line flags.
// Keys may be dotted ("log.level").
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) { l.overrides = values }
}

// NewLoader returns a Loader with the default env prefix.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies every configured layer and unmarshals the merged tree into
// target. Fields no layer mentions keep the value they had, so target is
// normally pre-filled with defaults.
func (l *Loader) Load(target any) error {
	l.sources = l.sources[:0]

	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("config file %s: %w", l.filePath, err)
		}
		l.sources = append(l.sources, SourceFile)
	}

	matched := 0
	envLayer := env.Provider(l.envPrefix, ".", func(name string) string {
		matched++
		return EnvKey(l.envPrefix, name)
	})
	if err := l.k.Load(envLayer, nil); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if matched > 0 {
		l.sources = append(l.sources, SourceEnv)
	}

	if len(l.overrides) > 0 {
		if err := l.k.Load(mapProvider(l.overrides), nil); err != nil {
			return fmt.Errorf("overrides: %w", err)
		}
		l.sources = append(l.sources, SourceOverrides)
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// EnvKey maps an environment variable name to a configuration path. The
// driver segment under "drivers" has underscores turned into dashes.
//
//	SESSKEEP_DRIVERS__SQL_NETWORKED__HOST -> drivers.sql-networked.host
//	SESSKEEP_SESSION__WRITE_THROUGH       -> session.write_through
func EnvKey(prefix, name string) string {
	parts := strings.Split(strings.ToLower(strings.TrimPrefix(name, prefix)), envSeparator)
	if len(parts) > 1 && parts[0] == "drivers" {
		parts[1] = strings.ReplaceAll(parts[1], "_", "-")
	}
	return strings.Join(parts, ".")
}

// Sources lists the layers the last Load applied, lowest first.
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// Lookup returns the merged value at a dotted path.
func (l *Loader) Lookup(path string) (any, bool) {
	if !l.k.Exists(path) {
		return nil, false
	}
	return l.k.Get(path), true
}
