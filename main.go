package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"planscape/benefits"
	"planscape/config"
	"planscape/discovery"
	"planscape/document"
	"planscape/ingest"
	"planscape/scraper/browser"
	"planscape/scraper/search"
	"planscape/services"
	"planscape/storage"
	"planscape/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	logger.Info("=== Plan landscape pipeline starting ===")
	logger.Info("Config — stages: %s | years: %v | discovery: %d workers | extraction: %d workers | rate: %dms",
		strings.Join(cfg.Stages, ","), cfg.Years, cfg.DiscoveryConcurrency, cfg.ExtractConcurrency, cfg.RateLimitMs)

	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		if utils.IsFatal(err) {
			logger.Error("Run aborted: %v", err)
		} else {
			logger.Error("Run failed: %v", err)
		}
		os.Exit(1)
	}

	fmt.Printf("  Done. Artifacts → %s\n\n", cfg.OutputDir)
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	writer := storage.NewJSONWriter()
	years := cfg.Years

	if cfg.Runs(config.StageIngest) {
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		}
		engine := ingest.New(ingest.Options{
			Archive:      cfg.LandscapeArchive,
			GazetteerDir: cfg.GazetteerDir,
			Crosswalk:    cfg.ZCTACrosswalk,
			OutputDir:    cfg.OutputDir,
			Years:        cfg.Years,
		}, writer, client, retry, logger)

		stats, err := engine.Run(ctx)
		if err != nil {
			return utils.Fatal(config.StageIngest, err)
		}
		if len(years) == 0 {
			for y := range stats.Years {
				years = append(years, y)
			}
			sort.Ints(years)
		}
	}

	if len(years) == 0 {
		emitted, err := ingest.EmittedYears(cfg.OutputDir)
		if err != nil {
			return utils.Fatal(config.StageIngest, err)
		}
		years = emitted
	}
	if len(years) == 0 {
		logger.Warn("No target years: set YEARS or run the ingest stage first")
		return nil
	}

	fetcher := document.NewFetcher(client, cfg.MaxDocumentBytes, cfg.MinDocumentBytes)

	if cfg.Runs(config.StageDiscover) {
		var resolver *discovery.Resolver
		if cfg.DiscoveryEnabled() {
			searcher := search.NewBrave(client, cfg.SearchEndpoint, cfg.SearchAPIKey)
			resolver = discovery.NewResolver(searcher, fetcher, document.PDFExtractor{},
				cfg.SearchResultLimit, cfg.PDFPageCap, logger)

			if cfg.BrowserRender {
				renderer, err := browser.NewRenderer(cfg.ChromeBin, logger)
				if err != nil {
					logger.Warn("[browser] Rendering disabled: %v", err)
				} else {
					defer renderer.Close()
					resolver.Renderer = renderer
				}
			}
		}

		engine := discovery.New(discovery.Options{
			OutputDir:   cfg.OutputDir,
			Concurrency: cfg.DiscoveryConcurrency,
			RateLimitMs: cfg.RateLimitMs,
		}, resolver, writer, logger)

		for _, year := range years {
			if _, err := engine.Run(ctx, year); err != nil {
				return utils.Fatal(config.StageDiscover, err)
			}
		}
	}

	if cfg.Runs(config.StageExtract) {
		runner := benefits.New(benefits.Options{
			ManualSourcesDir: cfg.ManualSourcesDir,
			OutputDir:        cfg.OutputDir,
			Concurrency:      cfg.ExtractConcurrency,
			PageCap:          cfg.PDFPageCap,
		}, fetcher, document.PDFExtractor{}, writer, logger)

		if cfg.PostgresDSN != "" {
			pgWriter, err := storage.NewPostgresWriter(cfg.PostgresDSN)
			if err != nil {
				logger.Error("Failed to connect to PostgreSQL: %v", err)
				logger.Error("Continuing without the database mirror")
			} else {
				defer pgWriter.Close()
				runner.Mirror = pgWriter
			}
		}

		insightSvc := services.NewInsightService(logger)
		for _, year := range years {
			report, err := runner.Run(ctx, year)
			if err != nil {
				return utils.Fatal(config.StageExtract, err)
			}
			insightSvc.Print(report)
		}
	}

	return nil
}
