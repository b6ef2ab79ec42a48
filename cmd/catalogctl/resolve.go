package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medifocal/catalog/internal/domain"
)

var resolveParent bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a user-supplied category name to its stored spelling",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		field := domain.FieldCategory
		if resolveParent {
			field = domain.FieldParentCategory
		}
		name := strings.Join(args, " ")
		resolved, ok := service.Resolver().Resolve(cmd.Context(), name, field)
		if !ok {
			return fmt.Errorf("no %s matches %q", field, name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resolved)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVarP(&resolveParent, "parent", "p", false, "resolve against parentCategory instead of category")
	rootCmd.AddCommand(resolveCmd)
}
