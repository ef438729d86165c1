package cli

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tokendock/internal/app"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Inspect and edit favorites in the configured store",
		Long: `Runs registry operations directly against the configured store.
Stop the service first when using the file store, or its next save
will overwrite changes made here.`,
	}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List favorites, pinned first then most recently used",
		Args:  cobra.NoArgs,
		RunE: withRegistry(func(cmd *cobra.Command, reg *favorites.Registry, _ []string) error {
			renderFavorites(cmd.OutOrStdout(), reg.Search(query), "No favorites found")
			return nil
		}),
	}
	list.Flags().StringVarP(&query, "query", "q", "", "rank by free text over name, target, app and tags")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "pinned",
			Short: "List pinned favorites, most recently pinned first",
			Args:  cobra.NoArgs,
			RunE: withRegistry(func(cmd *cobra.Command, reg *favorites.Registry, _ []string) error {
				renderFavorites(cmd.OutOrStdout(), reg.Pinned(), "Nothing pinned")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "pin <id>",
			Short: "Pin a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: withRegistry(func(cmd *cobra.Command, reg *favorites.Registry, args []string) error {
				res, err := reg.Pin(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderPinResult(cmd.OutOrStdout(), "pin", res, reg.PinnedCount())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "unpin <id>",
			Short: "Unpin a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: withRegistry(func(cmd *cobra.Command, reg *favorites.Registry, args []string) error {
				res, err := reg.Unpin(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderPinResult(cmd.OutOrStdout(), "unpin", res, reg.PinnedCount())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <id>...",
			Short: "Delete favorites",
			Args:  cobra.MinimumNArgs(1),
			RunE: withRegistry(func(cmd *cobra.Command, reg *favorites.Registry, args []string) error {
				n, err := reg.DeleteMany(cmd.Context(), args)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %d of %d\n", text.FgGreen.Sprint("✓"), n, len(args))
				return nil
			}),
		},
	)
	return cmd
}

type registryFunc func(cmd *cobra.Command, reg *favorites.Registry, args []string) error

// withRegistry loads configuration and the registry, runs fn, and releases the store.
func withRegistry(fn registryFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Keep command output readable: only warnings and errors are logged.
		log := logger.New("warn", true)
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		reg, _, closer, err := app.OpenRegistry(ctx, cfg, log, nil)
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()

		cmd.SetContext(ctx)
		return fn(cmd, reg, args)
	}
}
