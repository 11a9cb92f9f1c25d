package command

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep/internal/infra/confloader"
	"github.com/yndnr/sesskeep/internal/infra/shutdown"
	"github.com/yndnr/sesskeep/internal/telemetry/logger"
	"github.com/yndnr/sesskeep/pkg/session"
)

// SweepCommand returns the long-running garbage collection daemon.
func SweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Run garbage collection periodically and serve /metrics",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Sweep period (default: session.gc_interval)",
			},
			&cli.DurationFlag{
				Name:  "max-lifetime",
				Usage: "Idle lifetime (default: session.gc_max_lifetime)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Listen address for /metrics; empty disables (default: metrics.addr)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Time allowed for a graceful stop",
				Value: 10 * time.Second,
			},
		},
		Action: runSweep,
	}
}

func runSweep(c *cli.Context) error {
	env := GetEnv(c)
	log := env.Log

	d, err := openDriver(c, session.WithRegisterer(nil))
	if err != nil {
		return err
	}

	h := shutdown.NewHandler(c.Duration("shutdown-timeout"), log)
	h.OnShutdown("driver", func(context.Context) error { return d.Close() })

	addr := env.Config.Metrics.Addr
	if c.IsSet("metrics-addr") {
		addr = c.String("metrics-addr")
	}
	if addr != "" {
		srv, err := serveMetrics(addr, d, env.Log)
		if err != nil {
			_ = d.Close()
			return err
		}
		h.OnShutdown("metrics", srv.Shutdown)
	}

	// The sweeper starts only once nothing above can fail and close d.
	sweeper := session.NewSweeper(d, c.Duration("interval"), c.Duration("max-lifetime"))
	go sweeper.Run(c.Context)
	h.OnShutdown("sweeper", func(context.Context) error {
		sweeper.Stop()
		return nil
	})

	if env.ConfigPath != "" {
		w, err := watchConfig(c, env)
		if err != nil {
			env.Log.Warn("config watcher disabled", "error", err)
		} else {
			h.OnShutdown("config-watcher", func(context.Context) error { return w.Stop() })
		}
	}

	env.Log.Info("sweeper running", "driver", d.Name())
	return h.Wait(c.Context)
}

func serveMetrics(addr string, d *session.Driver, log *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, cli.Exit("metrics listener: "+err.Error(), ExitFailure)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	log.Info("metrics listener started", "addr", ln.Addr().String())
	return srv, nil
}

// watchConfig re-reads the configuration file on change and applies the
// runtime-adjustable settings. Only log.level can change without a
// restart.
func watchConfig(c *cli.Context, env *Env) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(env.Log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(env.ConfigPath); err != nil {
		_ = w.Stop()
		return nil, err
	}

	overrides := flagOverrides(c)
	w.OnChange(func(path string) {
		cfg := session.DefaultConfig()
		loader := confloader.NewLoader(
			confloader.WithConfigFile(path),
			confloader.WithOverrides(overrides),
		)
		if err := loader.Load(cfg); err != nil {
			env.Log.Warn("configuration reload failed", "error", err)
			return
		}
		if v, ok := loader.Lookup("driver"); ok && v != env.Config.Driver {
			env.Log.Warn("driver change ignored until restart", "running", env.Config.Driver, "configured", v)
		}
		prev := logger.Level()
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			env.Log.Warn("ignoring invalid log level", "error", err)
			return
		}
		if now := logger.Level(); now != prev {
			env.Log.Info("log level changed", "from", prev, "to", now)
		}
	})
	w.Start()
	return w, nil
}
