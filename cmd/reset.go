package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every saved game",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ok, _ := cmd.Flags().GetBool("yes"); !ok {
			return eris.New("reset deletes every save; rerun with --yes to confirm")
		}
		ctx := cmd.Context()
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		if d.sqlite != nil {
			if err := d.sqlite.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all saves deleted")
			return nil
		}

		saves, err := d.saves.List(ctx)
		if err != nil {
			return eris.Wrap(err, "list saves")
		}
		for _, s := range saves {
			if err := d.saves.Delete(ctx, s.ID); err != nil {
				return eris.Wrapf(err, "delete save %s", s.ID)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d saves deleted\n", len(saves))
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deleting every save")
}
