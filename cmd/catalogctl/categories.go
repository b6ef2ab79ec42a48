package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medifocal/catalog/internal/domain"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories [name]",
	Short: "Print the category map, or one category with its subcategory groups",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			category, ok := service.GetCategoryByName(ctx, args[0])
			if !ok {
				return fmt.Errorf("category %q not found", args[0])
			}
			if jsonOutput {
				return printJSON(out, category)
			}
			printGroups(cmd, category.Name, category.Groups())
			return nil
		}

		categories := service.GetCategories(ctx, false)
		if jsonOutput {
			return printJSON(out, categories)
		}
		names := make([]string, 0, len(categories))
		for name := range categories {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			printGroups(cmd, name, categories[name])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func printGroups(cmd *cobra.Command, name string, groups []domain.SubCategoryGroup) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, name)
	for _, g := range groups {
		fmt.Fprintf(out, "  %s: %s\n", g.Title, strings.Join(g.Items, ", "))
	}
}
