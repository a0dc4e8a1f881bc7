// File: cmd/list.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rvanheerden/cartprobe/internal/catalog"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured scenarios.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cfg.Scenarios) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no scenarios configured")
				return nil
			}
			for _, sc := range cfg.Scenarios {
				constraint := ""
				switch {
				case sc.MaxPrice > 0:
					constraint = "under " + catalog.FormatPrice(sc.MaxPrice)
				case sc.MinRefresh > 0:
					constraint = fmt.Sprintf(">= %dHz", sc.MinRefresh)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s search=%q brand=%q category=%q %s -> %s\n",
					sc.Name, sc.Search, sc.Brand, sc.Category, constraint, sc.Target)
			}
			return nil
		},
	}
}
