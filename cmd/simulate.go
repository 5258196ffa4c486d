package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/room"
	"github.com/abhisek/smartroom/internal/workshop"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted session without the TUI",
	Long:  "Builds and places devices, ticks the room and prints mode changes and crises. Use --seed to reproduce a run.",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Int("ticks", 30, "Number of simulation ticks")
	f.Int("devices", 4, "Number of generated devices (ignored when --spec is given)")
	f.StringSlice("spec", nil, "JSON device spec file, repeatable")
	f.Uint64("seed", 0, "Simulation seed (default from SMARTROOM_SEED or the clock)")
	f.String("scenario", "", "Scenario ID to play instead of free play")
	f.Bool("auto-resolve", true, "Resolve each crisis as soon as it starts")
	f.String("save", "", "Save the final state under this label")
	f.BoolP("verbose", "v", false, "Print every interaction")
}

type simOptions struct {
	ticks       int
	devices     int
	specs       []string
	scenario    string
	autoResolve bool
	save        string
	verbose     bool
}

func simFlags(cmd *cobra.Command) simOptions {
	var o simOptions
	f := cmd.Flags()
	o.ticks, _ = f.GetInt("ticks")
	o.devices, _ = f.GetInt("devices")
	o.specs, _ = f.GetStringSlice("spec")
	o.scenario, _ = f.GetString("scenario")
	o.autoResolve, _ = f.GetBool("auto-resolve")
	o.save, _ = f.GetString("save")
	o.verbose, _ = f.GetBool("verbose")
	return o
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	o := simFlags(cmd)
	if o.ticks < 0 || o.devices < 0 {
		return eris.New("--ticks and --devices cannot be negative")
	}
	specs, err := loadSpecs(o)
	if err != nil {
		return err
	}

	d, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer d.Close()
	if cmd.Flags().Changed("seed") {
		d.cfg.Seed, _ = cmd.Flags().GetUint64("seed")
	}

	e := d.engine()
	defer e.Shutdown(context.WithoutCancel(ctx))
	if err := e.Initialize(ctx); err != nil {
		d.log.Warn().Err(err).Msg("engine started in safe mode")
	}

	out := cmd.OutOrStdout()
	s := &script{ctx: ctx, e: e, out: out, last: e.Mode()}
	fmt.Fprintf(out, "start   %s\n", e.Mode())

	target := mode.FreePlay
	if o.scenario != "" {
		if err := e.SelectScenario(o.scenario); err != nil {
			return eris.Wrapf(err, "select scenario %s", o.scenario)
		}
		target = mode.Scenario
	}
	s.transition(target)

	for _, spec := range specs {
		dev, err := e.CreateDevice(ctx, spec)
		if err != nil {
			fmt.Fprintf(out, "build   %s failed: %v\n", spec.Name, err)
			continue
		}
		if dev, err = e.PlaceNext(ctx, dev.ID); err != nil {
			fmt.Fprintf(out, "place   %s failed: %v\n", spec.Name, err)
			continue
		}
		fmt.Fprintf(out, "placed  %s %s at (%d,%d)\n", dev.Kind.Icon(), dev.Name, dev.Position.X, dev.Position.Y)
		s.follow()
	}

	var crises, interactions int
	for i := 1; i <= o.ticks; i++ {
		if ctx.Err() != nil {
			break
		}
		rep, err := e.Tick(ctx)
		if err != nil {
			fmt.Fprintf(out, "tick %-3d fault: %v\n", i, err)
		}
		interactions += len(rep.Interactions)
		if o.verbose {
			for _, in := range rep.Interactions {
				fmt.Fprintf(out, "tick %-3d %s %s <> %s (%.2f)\n", i, in.Kind, in.DeviceA, in.DeviceB, in.Intensity)
			}
		}
		s.follow()
		if rep.Crisis != nil {
			crises++
			fmt.Fprintf(out, "tick %-3d crisis: %s (severity %.2f)\n", i, rep.Crisis.Cause, rep.Crisis.Severity)
			if o.autoResolve {
				if _, err := e.ResolveCrisis(ctx); err != nil {
					fmt.Fprintf(out, "tick %-3d resolve failed: %v\n", i, err)
				}
				s.follow()
			}
		}
	}

	h := e.SystemHealth()
	fmt.Fprintf(out, "done    %d ticks, %d interactions, %d crises, mode %s, %d devices\n",
		o.ticks, interactions, crises, h.CurrentMode, h.DeviceCount)
	if h.SafeModeEnabled {
		fmt.Fprintf(out, "safe mode: %s\n", h.SafeModeReason)
	}

	if o.save != "" {
		meta, err := e.Save(ctx, o.save)
		if err != nil {
			return eris.Wrap(err, "save")
		}
		fmt.Fprintf(out, "saved   %s\n", meta.ID)
	}
	return nil
}

// script prints mode changes as a session runs.
type script struct {
	ctx  context.Context
	e    *orchestrator.Engine
	out  io.Writer
	last mode.Mode
}

func (s *script) transition(to mode.Mode) {
	t := s.e.TransitionToMode(s.ctx, to, mode.Instant)
	switch {
	case t.Skipped:
		fmt.Fprintf(s.out, "skipped %s -> %s\n", t.From, t.To)
	case t.Failed:
		fmt.Fprintf(s.out, "failed  %s -> %s, back in %s\n", t.From, t.To, s.e.Mode())
	}
	s.follow()
}

// follow reports a mode change made by the engine itself, such as a crisis
// or a finished scenario.
func (s *script) follow() {
	if m := s.e.Mode(); m != s.last {
		fmt.Fprintf(s.out, "mode    %s -> %s\n", s.last, m)
		s.last = m
	}
}

var generatedNames = []string{"Lumi", "Bolt", "Echo", "Frost", "Dusty", "Iris", "Nova", "Pip", "Rumble", "Sage", "Tock", "Whirr"}

var generatedTempers = []room.Personality{
	{Helpfulness: 0.8, Stubbornness: 0.2, Curiosity: 0.5, Temper: 0.1},
	{Helpfulness: 0.2, Stubbornness: 0.6, Curiosity: 0.3, Temper: 0.9},
	{Helpfulness: 0.5, Stubbornness: 0.3, Curiosity: 0.9, Temper: 0.3},
	{Helpfulness: 0.4, Stubbornness: 0.9, Curiosity: 0.2, Temper: 0.5},
}

// loadSpecs reads --spec files, or generates --devices specs.
func loadSpecs(o simOptions) ([]workshop.DeviceSpec, error) {
	if len(o.specs) > 0 {
		specs := make([]workshop.DeviceSpec, 0, len(o.specs))
		for _, path := range o.specs {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, eris.Wrapf(err, "read spec %s", path)
			}
			spec, err := workshop.ParseSpec(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "parse spec %s", path)
			}
			specs = append(specs, spec)
		}
		return specs, nil
	}

	kinds := room.AllKinds()
	specs := make([]workshop.DeviceSpec, o.devices)
	for i := range specs {
		name := generatedNames[i%len(generatedNames)]
		if i >= len(generatedNames) {
			name = fmt.Sprintf("%s %d", name, i/len(generatedNames)+1)
		}
		specs[i] = workshop.DeviceSpec{
			Name:        name,
			Kind:        kinds[i%len(kinds)],
			Personality: generatedTempers[i%len(generatedTempers)],
		}
	}
	return specs, nil
}
