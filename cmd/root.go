package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/smartroom/internal/config"
	"github.com/abhisek/smartroom/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "smartroom",
	Short:         "Smart home simulation game",
	Long:          "Smart Room is a terminal game about building opinionated devices and keeping the peace between them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, "")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx. Cancelling ctx stops the
// game the same way closing the window would.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "Path to SQLite database file (overrides SMARTROOM_DB env var)")
	flags.String("backend", "", "Save backend, sqlite or redis (overrides SMARTROOM_SAVE_BACKEND)")
	flags.String("log-level", "", "Log level (overrides SMARTROOM_LOG_LEVEL)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(savesCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
