// Package command defines the sesskeep command-line tool.
//
// Every command loads the layered configuration (file, SESSKEEP_*
// environment, flags) in the app's Before hook and builds the session
// driver on demand, so commands that never touch storage (keygen,
// version, config show) work without a reachable backend.
package command

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep/internal/cli/output"
	"github.com/yndnr/sesskeep/internal/infra/buildinfo"
	"github.com/yndnr/sesskeep/internal/infra/confloader"
	"github.com/yndnr/sesskeep/internal/telemetry/logger"
	"github.com/yndnr/sesskeep/pkg/session"
)

const envKey = "env"

// Env is the state shared by every command action.
type Env struct {
	Config     *session.Config
	ConfigPath string
	Log        *slog.Logger
	Output     output.Format
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "sesskeep",
		Usage:                "Encrypted session storage administration",
		Version:              buildinfo.Get().Version,
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Metadata:             map[string]any{},
		Before:               setup,
		Commands: []*cli.Command{
			GCCommand(),
			SweepCommand(),
			SessionCommand(),
			MigrateCommand(),
			KeygenCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"SESSKEEP_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "driver",
			Usage: "Override the configured driver (file, sql-embedded, sql-networked)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
	}
}

// setup loads the configuration and the logger into the app metadata.
func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsage)
	}

	path := c.String("config")
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(flagOverrides(c)),
	)

	cfg := session.DefaultConfig()
	if err := loader.Load(cfg); err != nil {
		return cli.Exit(fmt.Sprintf("load configuration: %v", err), ExitUsage)
	}

	log, err := newLogger(c.App.ErrWriter, cfg.Log)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsage)
	}
	logger.SetDefault(log)
	log.Debug("configuration loaded", "sources", loader.Sources(), "driver", cfg.Driver)

	c.App.Metadata[envKey] = &Env{
		Config:     cfg,
		ConfigPath: path,
		Log:        log,
		Output:     format,
	}
	return nil
}

func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	if v := c.String("driver"); v != "" {
		overrides["driver"] = v
	}
	if v := c.String("log-level"); v != "" {
		overrides["log.level"] = v
	}
	if v := c.String("log-format"); v != "" {
		overrides["log.format"] = v
	}
	return overrides
}

func newLogger(w io.Writer, cfg session.LogConfig) (*slog.Logger, error) {
	return logger.New(logger.Options{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: w,
	})
}

// GetEnv retrieves the command environment prepared by setup.
func GetEnv(c *cli.Context) *Env {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env
	}
	return nil
}

// openDriver builds the configured driver.
func openDriver(c *cli.Context, opts ...session.Option) (*session.Driver, error) {
	env := GetEnv(c)
	if env == nil {
		return nil, cli.Exit("configuration not loaded", ExitUsage)
	}
	opts = append([]session.Option{session.WithLogger(env.Log)}, opts...)
	return session.New(c.Context, env.Config, opts...)
}

// render renders data in the selected output format.
func render(c *cli.Context, data any) error {
	env := GetEnv(c)
	format := output.FormatTable
	if env != nil {
		format = env.Output
	}
	return output.Print(c.App.Writer, format, data)
}
