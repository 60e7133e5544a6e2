package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/shopscrape/internal/config"
	"github.com/IshaanNene/shopscrape/internal/parser"
	"github.com/IshaanNene/shopscrape/internal/pipeline"
	"github.com/IshaanNene/shopscrape/internal/snapshot"
	"github.com/IshaanNene/shopscrape/internal/storage"
	"github.com/IshaanNene/shopscrape/internal/types"
)

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract products from saved result pages",
		Long: `Run the card extractor over pages saved with --snapshot-dir (page-001.html.br)
or over plain .html files, in the order given. Deduplication and export work
exactly like a live search, so selectors can be tuned without a browser.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runExtract,
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)
	extractor := parser.NewExtractor(cfg.Selectors, logger)

	var all []types.Product
	for _, path := range args {
		markup, err := snapshot.Load(path)
		if err != nil {
			return err
		}
		products := extractor.Extract(markup, cfg.Search.Domain)
		logger.Info("file parsed", "path", path, "products", len(products))
		all = append(all, products...)
	}

	products, dropped, err := pipeline.NewAggregator(logger).Run(all)
	if err != nil {
		return err
	}

	store, err := storageOpener(cfg, logger)(context.Background())
	if err != nil {
		return err
	}
	storeErr := store.Store(products)
	if err := store.Close(); err != nil && storeErr == nil {
		storeErr = err
	}
	if storeErr != nil {
		return storeErr
	}

	fmt.Printf("\nExtracted %d products from %d files (%d unique, %d dropped)\n",
		len(all), len(args), len(products), dropped)
	printOutputs(cfg)
	return nil
}

func printOutputs(cfg *config.Config) {
	fmt.Printf("   Output:    %s\n", cfg.Storage.OutputPath)
	for _, f := range cfg.Storage.ExtraFormats {
		fmt.Printf("              %s\n", storage.SiblingPath(cfg.Storage.OutputPath, f))
	}
}
