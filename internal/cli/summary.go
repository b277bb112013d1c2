package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/pagegen/pkg/logging"
	"github.com/Sternrassler/pagegen/pkg/store"
	"github.com/spf13/cobra"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var recent int64

	cmd := &cobra.Command{
		Use:   "summary [run-id]",
		Short: "Show a recorded batch summary, or list recent run IDs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return errors.New("summaries need redis.enabled in the config")
			}

			ctx := cmd.Context()
			client, err := store.Connect(ctx, cfg.Redis.URL)
			if err != nil {
				return err
			}
			defer client.Close()

			rec := store.NewRecorder(client, cfg.StoreConfig(), logging.NewLogger("store"))

			if len(args) == 0 {
				ids, err := rec.Recent(ctx, recent)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			s, err := rec.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}

	cmd.Flags().Int64Var(&recent, "recent", 10, "number of recent run IDs to list")
	return cmd
}
