package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/app"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ shelf: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir  string
	logLevel string
	password string
}

func newRootCmd() *cobra.Command {
	var (
		flags globalFlags
		a     *app.App
	)

	root := &cobra.Command{
		Use:           "shelf",
		Short:         "Bookmark categories with filesystem catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["standalone"] == "true" {
				return nil
			}
			cfg := config.Load()
			if flags.dataDir != "" {
				cfg.DataDir = flags.dataDir
			}
			if flags.logLevel != "" {
				cfg.LogLevel = flags.logLevel
			}
			if flags.password != "" {
				cfg.GlobalPassword = flags.password
			}

			var err error
			a, err = app.New(cmd.Context(), cfg, logger.New(cfg.LogLevel, cfg.PrettyLog))
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&flags.dataDir, "data-dir", "d", "", "Directory holding the category files (overrides SHELF_DATA_DIR)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides SHELF_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&flags.password, "password", "", "Global password used to open encrypted categories")

	serve := newServeCmd(&a)
	root.RunE = serve.RunE
	root.AddCommand(
		serve,
		newListCmd(&a),
		newRefreshCmd(&a),
		newBackupCmd(&a),
		newVersionCmd(),
	)
	return root
}
