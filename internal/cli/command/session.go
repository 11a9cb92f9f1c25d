package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep/internal/cli/output"
	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/internal/telemetry/logger"
)

// SessionCommand returns the session inspection group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Inspect and remove stored sessions",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Decrypt and print a stored session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionShow,
			},
			{
				Name:      "destroy",
				Aliases:   []string{"rm"},
				Usage:     "Delete a stored session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionDestroy,
			},
		},
	}
}

type sessionView struct {
	ID    string         `json:"id" yaml:"id"`
	Data  map[string]any `json:"data" yaml:"data"`
	Flash map[string]any `json:"flash,omitempty" yaml:"flash,omitempty"`
}

func sessionShow(c *cli.Context) error {
	id, err := sessionArg(c)
	if err != nil {
		return err
	}

	d, err := openDriver(c)
	if err != nil {
		return err
	}
	defer d.Close()

	s, err := d.Start(c.Context, id)
	if err != nil {
		return err
	}
	if s.IsNew() {
		return domain.ErrSessionNotFound.WithDetails(id)
	}

	view := sessionView{ID: s.ID(), Data: s.All(), Flash: s.PendingFlash()}
	if GetEnv(c).Output != output.FormatTable {
		return render(c, view)
	}

	t := &output.Table{Headers: []string{"KIND", "KEY", "VALUE"}}
	for _, row := range output.KeyValueTable(view.Data).Rows {
		t.AddRow("data", row[0], row[1])
	}
	for _, row := range output.KeyValueTable(view.Flash).Rows {
		t.AddRow("flash", row[0], row[1])
	}
	return render(c, t)
}

func sessionDestroy(c *cli.Context) error {
	id, err := sessionArg(c)
	if err != nil {
		return err
	}

	d, err := openDriver(c)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Destroy(c.Context, id); err != nil {
		return err
	}
	GetEnv(c).Log.InfoContext(logger.WithSessionID(c.Context, id), "session destroyed", "driver", d.Name())
	return render(c, map[string]any{"destroyed": id})
}

func sessionArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit("expected exactly one SESSION_ID argument", ExitUsage)
	}
	id := c.Args().First()
	if err := domain.ValidateSessionID(id); err != nil {
		return "", cli.Exit(err.Error(), ExitUsage)
	}
	return id, nil
}
