package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medifocal/catalog/config"
	"github.com/medifocal/catalog/internal/bootstrap"
	"github.com/medifocal/catalog/internal/domain"
	"github.com/medifocal/catalog/internal/logger"
	"github.com/medifocal/catalog/internal/usecase"
)

var (
	verbose    bool
	jsonOutput bool

	cfg     *config.Config
	zl      *zap.Logger
	deps    *bootstrap.Deps
	service *usecase.CatalogService
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Inspect and load the Medifocal product catalog",
	Long: `catalogctl works against the catalog store configured through config.yaml
or MEDIFOCAL_* environment variables. It imports seed files, runs relevance
searches, resolves category names and prints facets and the category map.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		zl, err = logger.New(logger.Options{
			Environment: cfg.Server.Environment,
			Level:       level,
			Service:     "catalogctl",
		})
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		deps, err = bootstrap.Build(cmd.Context(), cfg, zl)
		if err != nil {
			return fmt.Errorf("init infrastructure: %w", err)
		}
		service = deps.CatalogService(cfg, zl)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = zl.Sync() }()
		return deps.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProducts(w io.Writer, products []domain.Product) error {
	if jsonOutput {
		return printJSON(w, products)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tMANUFACTURER\tCATEGORY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ItemNumber, p.Name, p.Manufacturer, p.Category, p.DisplayPrice)
	}
	return tw.Flush()
}

func printOptions(w io.Writer, title string, options []domain.FilterOption) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tCOUNT\n", title)
	for _, o := range options {
		fmt.Fprintf(tw, "%s\t%d\n", o.Name, o.Count)
	}
	return tw.Flush()
}
