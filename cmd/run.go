package cmd

import (
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/smartroom/internal/config"
	"github.com/abhisek/smartroom/internal/logging"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/simulation"
	"github.com/abhisek/smartroom/internal/store"
)

// deps is everything a command needs after startup.
type deps struct {
	cfg     config.Config
	log     zerolog.Logger
	sqlite  *store.Store
	saves   store.SaveRepo
	closers []io.Closer
}

// setup loads the config, builds the logger and opens the save backend.
// When logToFile is set logs go to the log file so they stay off the
// terminal the TUI is drawing on.
func setup(cmd *cobra.Command, logToFile bool) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := logging.Options{Level: cfg.LogLevel, Console: cmd.ErrOrStderr()}
	if logToFile {
		opts.File = cfg.LogFile
		if opts.File == "" {
			if opts.File, err = logging.DefaultLogFile(); err != nil {
				return nil, eris.Wrap(err, "resolve log file")
			}
		}
	}
	log, closer, err := logging.New(opts)
	if err != nil {
		return nil, eris.Wrap(err, "build logger")
	}
	d := &deps{cfg: cfg, log: log, closers: []io.Closer{closer}}

	switch cfg.SaveBackend {
	case config.BackendRedis:
		r, err := store.OpenRedis(cmd.Context(), cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			d.Close()
			return nil, eris.Wrap(err, "open redis")
		}
		d.saves = r
		d.closers = append(d.closers, r)
	default:
		path, err := resolveDBPath(cmd, cfg)
		if err != nil {
			d.Close()
			return nil, eris.Wrap(err, "resolve DB path")
		}
		st, err := store.Open(path)
		if err != nil {
			d.Close()
			return nil, eris.Wrap(err, "open store")
		}
		d.sqlite, d.saves = st, st.SaveRepo()
		d.closers = append(d.closers, st)
	}
	d.log.Debug().Str("backend", cfg.SaveBackend).Msg("save backend ready")
	return d, nil
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.SaveBackend = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, eris.Wrap(err, "validate flags")
	}
	return cfg, nil
}

// engine builds an engine over the standard collaborators.
func (d *deps) engine() *orchestrator.Engine {
	sim := simulation.DefaultConfig()
	sim.CrisisThreshold = d.cfg.CrisisThreshold
	if d.cfg.Seed != 0 {
		sim.Seed = d.cfg.Seed
	}
	return orchestrator.New(orchestrator.Options{
		Collaborators:  orchestrator.NewCollaborators(sim, nil, d.log),
		Saves:          d.saves,
		SaveRetention:  d.cfg.SaveRetention,
		HealthInterval: d.cfg.HealthInterval,
		Log:            d.log,
	})
}

// Close releases the backend and the log file, newest first.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
