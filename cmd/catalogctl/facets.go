package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medifocal/catalog/internal/domain"
	"github.com/medifocal/catalog/internal/usecase"
)

var (
	facetsCategory string
	facetsParent   string
	facetsQuery    string
	facetsLimit    int
)

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Print filter facets for a listing or search",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var products []domain.Product
		switch {
		case facetsQuery != "":
			products = service.SearchProducts(ctx, facetsQuery, facetsLimit)
		case facetsCategory != "":
			products = service.GetProductsByCategory(ctx, facetsCategory, facetsLimit)
		case facetsParent != "":
			products = service.GetProductsByParentCategory(ctx, facetsParent, facetsLimit)
		default:
			products = service.GetAllProducts(ctx, facetsLimit, "").Products
		}

		facets := usecase.BuildFacets(products)
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, facets)
		}

		sections := []struct {
			title   string
			options []domain.FilterOption
		}{
			{"MANUFACTURER", facets.Manufacturers},
			{"CATEGORY", facets.Categories},
			{"PARENT CATEGORY", facets.ParentCategories},
			{"PROCEDURE", facets.Procedures},
		}
		for i, s := range sections {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := printOptions(out, s.title, s.options); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	facetsCmd.Flags().StringVar(&facetsCategory, "category", "", "facet a leaf category listing")
	facetsCmd.Flags().StringVar(&facetsParent, "parent", "", "facet a parent category listing")
	facetsCmd.Flags().StringVarP(&facetsQuery, "query", "q", "", "facet search results")
	facetsCmd.Flags().IntVarP(&facetsLimit, "limit", "n", 200, "maximum products considered")
	rootCmd.AddCommand(facetsCmd)
}
