package main

import (
	"encoding/json"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/query"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Print the filters detected in a search phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := query.Parse(strings.Join(args, " "))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"query":       q,
				"params":      query.Values(q).Encode(),
				"description": query.Describe(q),
			})
		},
	}
}
