// Package cli is the tokendock command line.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tokendock/internal/config"
	"github.com/MrSnakeDoc/tokendock/internal/version"
)

// DefaultEnvFile is read before configuration when present.
const DefaultEnvFile = ".env"

// NewRootCmd builds the command tree. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "tokendock",
		Short: "Pinned token favorites for Entra ID developer tooling",
		Long: `tokendock keeps the tokens you request most often one click away.
It stores favorites, enforces the pinned limit, and streams changes to the UI.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "tokendock version %s\n" .Version}}`)
	root.PersistentFlags().StringVar(&envFile, "env-file", DefaultEnvFile, "dotenv file loaded before configuration")

	root.AddCommand(newServeCmd())
	root.AddCommand(newFavoritesCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig turns configuration panics into errors so the CLI exits cleanly.
func loadConfig() (cfg *config.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			if !strings.HasPrefix(msg, "❌ FATAL") {
				panic(r)
			}
			err = fmt.Errorf("%s", strings.TrimSpace(strings.TrimPrefix(msg, "❌ FATAL:")))
		}
	}()
	return config.Load(), nil
}
