package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medifocal/catalog/internal/bootstrap"
	"github.com/medifocal/catalog/internal/infrastructure/catalog"
)

var importCmd = &cobra.Command{
	Use:   "import <seed.json>",
	Short: "Upsert products and categories from a JSON seed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	seed, err := catalog.LoadSeedFile(args[0])
	if err != nil {
		return err
	}
	if cfg.Catalog.Driver == "memory" {
		zl.Warn("memory catalog driver selected, imported documents are discarded on exit")
	}
	if err := bootstrap.Import(ctx, deps.Writer, seed); err != nil {
		return err
	}
	if err := service.InvalidateCategoryCache(ctx); err != nil {
		zl.Warn("category cache not invalidated", zap.Error(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d products and %d categories\n", len(seed.Products), len(seed.Categories))
	return nil
}
