package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nest_sales_monitor/internal/app"
	"nest_sales_monitor/internal/browser"
	"nest_sales_monitor/internal/extract"
	"nest_sales_monitor/internal/processing"
	"nest_sales_monitor/internal/sheets"
)

// RowStore reads and appends spreadsheet rows.
type RowStore interface {
	ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)
	AppendRows(ctx context.Context, spreadsheetID, range_ string, rows [][]interface{}) error
}

// SnapshotStore persists page screenshots.
type SnapshotStore interface {
	Store(ctx context.Context, capturedAt time.Time, data []byte) (string, error)
}

// Notifier announces newly recorded sales.
type Notifier interface {
	NotifyNewSales(ctx context.Context, sales []extract.SaleRecord, skipped int)
}

// Deps holds the external services a run writes to. Sheets is required;
// Snapshots and Notifier may be nil.
type Deps struct {
	Sheets    RowStore
	Snapshots SnapshotStore
	Notifier  Notifier
}

// Run executes one full scrape cycle: fetch the page, extract sale records,
// filter out rows already on the sheet, append what is new, and upload a
// page snapshot. Snapshot upload is best effort; everything else is fatal
// for the run.
func Run(ctx context.Context, cfg app.Config, deps Deps) error {
	rlog := log.With().Str("run_id", uuid.NewString()).Logger()
	rlog.Info().Str("url", cfg.TargetURL).Msg("Starting scrape run")

	capture, err := browser.CapturePage(ctx, browserOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	records, err := extract.Records(capture.HTML, cfg.EntrySelector)
	if err != nil {
		return fmt.Errorf("failed to extract sales: %w", err)
	}
	if capture.EntryCount > 0 && len(records) == 0 {
		rlog.Warn().
			Int("entries", capture.EntryCount).
			Msg("Entries rendered but none parsed, page layout may have changed")
	}

	return publish(ctx, cfg, deps, rlog, records, capture)
}

// publish pushes one run's results to the sheet, snapshot store and notifier.
func publish(ctx context.Context, cfg app.Config, deps Deps, rlog zerolog.Logger, records []extract.SaleRecord, capture *browser.Capture) error {
	existingRows, err := deps.Sheets.ReadSheet(ctx, cfg.SpreadsheetID, sheets.ReadRange(cfg.SheetRange))
	if err != nil {
		return fmt.Errorf("failed to read existing sheet data: %w", err)
	}
	sheets.CheckHeader(existingRows)

	existing := processing.BuildExistingIndex(existingRows)
	fresh := processing.FilterNew(records, existing)
	skipped := len(records) - len(fresh)

	if len(fresh) == 0 {
		rlog.Info().
			Int("scraped", len(records)).
			Int("skipped", skipped).
			Msg("No new sales to record")
	} else {
		rows := sheets.BuildSaleRows(fresh, time.Now(), sheets.NeedsHeader(existingRows))
		if err := deps.Sheets.AppendRows(ctx, cfg.SpreadsheetID, cfg.SheetRange, rows); err != nil {
			return fmt.Errorf("failed to append rows to sheet: %w", err)
		}
		rlog.Info().
			Int("added", len(fresh)).
			Int("skipped", skipped).
			Msg("Sheet update complete")
	}

	uploadSnapshot(ctx, deps, rlog, capture)

	if deps.Notifier != nil && len(fresh) > 0 {
		deps.Notifier.NotifyNewSales(ctx, fresh, skipped)
	}

	return nil
}

func uploadSnapshot(ctx context.Context, deps Deps, rlog zerolog.Logger, capture *browser.Capture) {
	if deps.Snapshots == nil {
		return
	}
	if len(capture.Screenshot) == 0 {
		rlog.Debug().Msg("No screenshot captured, skipping snapshot upload")
		return
	}
	object, err := deps.Snapshots.Store(ctx, capture.FetchedAt, capture.Screenshot)
	if err != nil {
		rlog.Error().Err(err).Msg("Failed to upload page snapshot")
		return
	}
	rlog.Info().
		Str("object", object).
		Int("bytes", len(capture.Screenshot)).
		Msg("Page snapshot uploaded")
}

func browserOptions(cfg app.Config) browser.Options {
	return browser.Options{
		TargetURL:     cfg.TargetURL,
		EntrySelector: cfg.EntrySelector,
		Headless:      cfg.Headless,
		ProxyURL:      cfg.ProxyURL,
		WaitTimeout:   cfg.WaitTimeout,
		ExpandTimeout: cfg.ExpandTimeout,
	}
}
