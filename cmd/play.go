package cmd

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/abhisek/smartroom/internal/app"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the game",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("mode")
		return runPlay(cmd, start)
	},
}

func init() {
	playCmd.Flags().String("mode", "", "Mode to open in, e.g. free-play (default main menu)")
}

// runPlay boots the engine and hands the terminal to the TUI.
func runPlay(cmd *cobra.Command, start string) error {
	ctx := cmd.Context()

	var target mode.Mode
	if start != "" {
		m, err := mode.Parse(start)
		if err != nil {
			return eris.Wrap(err, "parse --mode")
		}
		target = m
	}

	d, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	e := d.engine()
	if err := e.Initialize(ctx); err != nil {
		d.log.Warn().Err(err).Msg("engine started in safe mode")
	}
	if target != "" && target != e.Mode() {
		if t := e.TransitionToMode(ctx, target, mode.Instant); t.Failed || t.Skipped {
			d.log.Warn().Str("mode", string(target)).Msg("could not open in requested mode")
		}
	}

	err = app.Run(ctx, app.Options{
		Engine:          e,
		TickInterval:    d.cfg.TickInterval,
		CrisisThreshold: d.cfg.CrisisThreshold,
		Log:             d.log,
	})

	// The TUI unloads on quit. An interrupt or a crash skips that path.
	select {
	case <-e.Done():
	default:
		e.HandleSignal(context.WithoutCancel(ctx), orchestrator.Signal{Kind: orchestrator.SignalUnload})
	}
	return err
}
