package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacklok/wiki-index-sync/internal/app"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Query the full-text index and print matching document keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := contextOrBackground(cmd)
			index, err := app.OpenIndex(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = index.Close() }()

			keys, err := index.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), k.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of results")
	return cmd
}
