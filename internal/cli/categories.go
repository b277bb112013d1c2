package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Sternrassler/pagegen/pkg/request"
	"github.com/spf13/cobra"
)

func newCategoriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories units can use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			return printCategories(cmd, cfg.Definitions())
		},
	}
}

func printCategories(cmd *cobra.Command, defs map[string]request.Definition) error {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tTHEMES\tREQUIRED KEYS")
	for _, name := range names {
		def := defs[name]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(def.Themes), strings.Join(def.RequiredKeys, ","))
	}
	return w.Flush()
}
