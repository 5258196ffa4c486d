package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Boot the engine and run one health check",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		e := d.engine()
		defer e.Shutdown(context.WithoutCancel(ctx))
		initErr := e.Initialize(ctx)

		rep := e.PerformHealthCheck(ctx)
		h := e.SystemHealth()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%-14s %s\n", "checked at", rep.At.Format(time.RFC3339))
		fmt.Fprintf(out, "%-14s %d\n", "collaborators", rep.Checked)
		fmt.Fprintf(out, "%-14s %s\n", "unhealthy", list(rep.Unhealthy))
		fmt.Fprintf(out, "%-14s %s\n", "recovered", list(rep.Recovered))
		fmt.Fprintf(out, "%-14s %t\n", "escalated", rep.Escalated)
		fmt.Fprintf(out, "%-14s %s\n", "mode", h.CurrentMode)
		fmt.Fprintf(out, "%-14s %t\n", "initialized", h.Initialized)
		if h.SafeModeEnabled {
			fmt.Fprintf(out, "%-14s %s\n", "safe mode", h.SafeModeReason)
		} else {
			fmt.Fprintf(out, "%-14s off\n", "safe mode")
		}

		switch {
		case initErr != nil:
			return eris.Wrap(initErr, "initialize")
		case !rep.Healthy():
			return eris.Errorf("%d unhealthy collaborator(s)", len(rep.Unhealthy))
		}
		return nil
	},
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
