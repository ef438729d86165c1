package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tokendock/internal/app"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	a, err := app.New(cmd.Context(), cfg, loggerClient)
	if err != nil {
		return err
	}
	return a.Run()
}
