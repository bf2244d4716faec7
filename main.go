package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"nest_sales_monitor/internal/app"
	"nest_sales_monitor/internal/pipeline"
	"nest_sales_monitor/internal/sheets"
)

func main() {
	app.SetupEnvironment()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}
}

// run carries the whole program so deferred cleanup executes before the
// process exits; log.Fatal in main would skip it.
func run() error {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	clients, cleanup, err := app.InitializeClients(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := clients.Sheets.EnsureSheet(ctx, cfg.SpreadsheetID, sheets.SheetName(cfg.SheetRange)); err != nil {
		return fmt.Errorf("failed to verify worksheet: %w", err)
	}

	deps := pipeline.Deps{
		Sheets:   clients.Sheets,
		Notifier: clients.Notifier,
	}
	if clients.Snapshots != nil {
		deps.Snapshots = clients.Snapshots
	}

	if cfg.RunInterval <= 0 {
		if err := runOnce(ctx, cfg, deps, clients); err != nil {
			clients.Notifier.NotifyRunFailure(ctx, err)
			return err
		}
		return nil
	}

	log.Info().
		Dur("interval", cfg.RunInterval).
		Msg("Starting scheduled mode. Running immediately and then on every tick...")

	runScheduled(ctx, cfg, deps, clients)

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	for range ticker.C {
		runScheduled(ctx, cfg, deps, clients)
	}
	return nil
}

// runOnce executes one scrape cycle. The API call counter is reset at the
// start so the stats line covers this run alone.
func runOnce(ctx context.Context, cfg app.Config, deps pipeline.Deps, clients *app.Clients) error {
	clients.Sheets.ResetAPICallCount()

	err := pipeline.Run(ctx, cfg, deps)

	log.Debug().
		Int64("sheets_api_calls_this_run", clients.Sheets.GetAPICallCount()).
		Msg("Run statistics")
	return err
}

// runScheduled wraps one ticker cycle. Failures are reported and logged but
// never stop the loop.
func runScheduled(ctx context.Context, cfg app.Config, deps pipeline.Deps, clients *app.Clients) {
	if err := runOnce(ctx, cfg, deps, clients); err != nil {
		clients.Notifier.NotifyRunFailure(ctx, err)
		log.Error().Err(err).Msg("Scrape run failed")
	}
}
