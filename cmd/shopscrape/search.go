package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/shopscrape/internal/config"
	"github.com/IshaanNene/shopscrape/internal/engine"
	"github.com/IshaanNene/shopscrape/internal/fetcher"
	"github.com/IshaanNene/shopscrape/internal/snapshot"
	"github.com/IshaanNene/shopscrape/internal/storage"
)

// searchCmd creates the "search" subcommand.
func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Scrape search result pages for a query",
		Long: `Open a browser, load <domain>/s?k=<query>&page=N for every requested page,
scroll each page to trigger lazy content and extract the product cards.

Duplicate ASINs across pages are dropped (the first one wins). Nothing is
written unless every page renders.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runSearch,
	}
	addSearchFlags(cmd.Flags())
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(cfg, logger)

	pacer := fetcher.NewPacer()
	eng.SetPacer(pacer)
	eng.SetProvider(fetcher.RodProvider(cfg, pacer, logger))
	eng.SetStorage(storageOpener(cfg, logger))

	if cfg.Snapshot.Dir != "" {
		w, err := snapshot.NewWriter(cfg.Snapshot.Dir, logger)
		if err != nil {
			return err
		}
		eng.SetSnapshots(w)
	}

	if cfg.Metrics.Enabled {
		srv := eng.Metrics().StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer srv.Close()
	}

	res, err := eng.Run(ctx, query)
	if err != nil {
		return err
	}

	stats := eng.Metrics().Snapshot()
	fmt.Printf("\nScrape complete in %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Pages:     %d rendered, %v without results\n", res.Pages, stats["pages_empty"])
	fmt.Printf("   Products:  %d extracted, %d unique, %d dropped\n", res.Extracted, len(res.Products), res.Dropped)
	printOutputs(cfg)

	if stats["captcha_pages"] > 0 {
		fmt.Println("\nSome pages were robot checks instead of results.")
		fmt.Println("   Try again with a visible browser, fewer pages or browser.stealth: true.")
	}
	return nil
}

// storageOpener defers building the sinks until the engine has every page.
func storageOpener(cfg *config.Config, logger *slog.Logger) engine.StorageOpener {
	return func(ctx context.Context) (storage.Storage, error) {
		return storage.Open(ctx, cfg.Storage, logger)
	}
}
