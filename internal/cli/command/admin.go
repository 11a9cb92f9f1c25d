package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep/internal/cli/output"
	"github.com/yndnr/sesskeep/internal/infra/buildinfo"
	"github.com/yndnr/sesskeep/pkg/crypto/envelope"
	"github.com/yndnr/sesskeep/pkg/session"
)

// MigrateCommand returns the schema creation command.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create the session table of the configured SQL driver if missing",
		Action: runMigrate,
	}
}

func runMigrate(c *cli.Context) error {
	d, err := openDriver(c)
	if err != nil {
		return err
	}
	defer d.Close()

	cfg := GetEnv(c).Config
	result := map[string]any{"driver": d.Name()}
	switch d.Name() {
	case session.DriverSQLEmbedded:
		result["table"] = cfg.Drivers.SQLEmbedded.Table
		result["database"] = cfg.Drivers.SQLEmbedded.DatabasePath
	case session.DriverSQLNetworked:
		result["table"] = cfg.Drivers.SQLNetworked.Table
		result["database"] = cfg.Drivers.SQLNetworked.Database
	default:
		result["path"] = cfg.Drivers.File.Path
	}
	result["status"] = "ready"
	return render(c, result)
}

// KeygenCommand returns the encryption key generator.
func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Print a new random encryption_key",
		Action: func(c *cli.Context) error {
			key, err := envelope.GenerateKey()
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write([]byte(key + "\n"))
			return err
		},
	}
}

// ConfigCommand returns the configuration group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the merged configuration with secrets masked",
				Action: func(c *cli.Context) error {
					return render(c, session.Sanitize(GetEnv(c).Config))
				},
			},
			{
				Name:  "validate",
				Usage: "Validate the selected driver's configuration",
				Action: func(c *cli.Context) error {
					cfg := GetEnv(c).Config
					if err := session.Verify(cfg); err != nil {
						return cli.Exit(err.Error(), ExitFailure)
					}
					return render(c, map[string]any{
						"driver": session.CanonicalDriver(cfg.Driver),
						"valid":  true,
					})
				},
			},
		},
	}
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			info := buildinfo.Get()
			if GetEnv(c).Output == output.FormatTable {
				_, err := c.App.Writer.Write([]byte(info.String() + "\n"))
				return err
			}
			return render(c, info)
		},
	}
}
