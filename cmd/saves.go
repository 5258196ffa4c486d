package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/abhisek/smartroom/internal/store"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage saved games",
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved games, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		saves, err := d.saves.List(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "list saves")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-36s  %-16s  %-18s  %-7s  %s\n", "ID", "Label", "Mode", "Format", "Created")
		fmt.Fprintln(out, strings.Repeat("─", 105))
		for _, s := range saves {
			fmt.Fprintf(out, "%-36s  %-16s  %-18s  %-7s  %s\n",
				s.ID, truncate(s.Label, 16), s.Mode, s.FormatVersion, s.CreatedAt.Local().Format(time.DateTime))
		}
		fmt.Fprintf(out, "\n%d saves\n", len(saves))
		return nil
	},
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.saves.Delete(cmd.Context(), args[0]); err != nil {
			if eris.Is(err, store.ErrNotFound) {
				return eris.Errorf("no save with id %s", args[0])
			}
			return eris.Wrap(err, "delete save")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
		return nil
	},
}

var savesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest saves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return eris.New("--keep cannot be negative")
		}
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.saves.Prune(cmd.Context(), keep)
		if err != nil {
			return eris.Wrap(err, "prune saves")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d saves\n", n)
		return nil
	},
}

func init() {
	savesPruneCmd.Flags().Int("keep", 5, "Number of newest saves to keep")

	savesCmd.AddCommand(savesListCmd)
	savesCmd.AddCommand(savesDeleteCmd)
	savesCmd.AddCommand(savesPruneCmd)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
