package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a relevance-ranked product search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := searchLimit
		if limit <= 0 {
			limit = cfg.Search.DefaultLimit
		}
		products := service.SearchProducts(cmd.Context(), strings.Join(args, " "), limit)
		return printProducts(cmd.OutOrStdout(), products)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (defaults to search.default_limit)")
	rootCmd.AddCommand(searchCmd)
}
