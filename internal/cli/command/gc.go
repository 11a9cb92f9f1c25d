package command

import (
	"github.com/urfave/cli/v2"
)

// GCCommand returns the one-shot garbage collection command.
func GCCommand() *cli.Command {
	return &cli.Command{
		Name:  "gc",
		Usage: "Delete sessions idle for longer than the lifetime",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "max-lifetime",
				Usage: "Idle lifetime; the driver's lifetime_seconds takes precedence when set",
			},
			&cli.BoolFlag{
				Name:  "maybe",
				Usage: "Sweep only with the configured gc_probability/gc_divisor chance",
			},
		},
		Action: runGC,
	}
}

func runGC(c *cli.Context) error {
	env := GetEnv(c)
	d, err := openDriver(c)
	if err != nil {
		return err
	}
	defer d.Close()

	maxLifetime := env.Config.Session.GCMaxLifetime
	if c.IsSet("max-lifetime") && !c.Bool("maybe") {
		maxLifetime = c.Duration("max-lifetime")
	}

	var (
		ran     = true
		deleted int
	)
	if c.Bool("maybe") {
		ran, deleted, err = d.MaybeGC(c.Context)
	} else {
		deleted, err = d.GC(c.Context, maxLifetime)
	}
	if err != nil {
		return err
	}

	return render(c, map[string]any{
		"driver":   d.Name(),
		"ran":      ran,
		"deleted":  deleted,
		"lifetime": d.Lifetime(maxLifetime).String(),
	})
}
