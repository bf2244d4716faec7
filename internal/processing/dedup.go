package processing

import (
	"fmt"
	"strings"

	"nest_sales_monitor/internal/extract"

	"github.com/rs/zerolog/log"
)

// Ledger column positions: [Timestamp, Name, Invoice ID, Amount].
const (
	colName    = 1
	colInvoice = 2
	colAmount  = 3
)

// BuildExistingIndex creates the duplicate-detection key set from the
// sheet's current rows. Rebuilt from scratch on every run; the sheet is the
// only record of what has been seen.
func BuildExistingIndex(existingData [][]interface{}) map[string]bool {
	log.Debug().Msg("Building existing sales index")
	existing := make(map[string]bool)

	for i, row := range existingData {
		name := extractStringField(row, colName)
		invoice := extractStringField(row, colInvoice)
		amount := extractStringField(row, colAmount)

		if isHeaderRow(name, invoice, amount) {
			continue
		}
		if name == "" || invoice == "" || amount == "" {
			log.Debug().
				Int("row", i+1).
				Msg("Skipping ledger row with missing key fields")
			continue
		}

		existing[recordKey(name, invoice, amount)] = true
	}

	log.Debug().Int("entries", len(existing)).Msg("Built existing sales index")
	return existing
}

// FilterNew returns the records whose keys are not yet in the index,
// preserving extraction order. Accepted keys are added to the index, so a
// key repeated on the page is kept once per run.
func FilterNew(records []extract.SaleRecord, existing map[string]bool) []extract.SaleRecord {
	var fresh []extract.SaleRecord
	for _, record := range records {
		key := record.Key()
		if existing[key] {
			log.Debug().Str("key", key).Msg("Skipping already recorded sale")
			continue
		}
		existing[key] = true
		fresh = append(fresh, record)
	}
	return fresh
}

func recordKey(name, invoice, amount string) string {
	return extract.SaleRecord{Name: name, InvoiceID: invoice, Amount: amount}.Key()
}

// extractStringField safely extracts a string field from a row at the given index.
func extractStringField(row []interface{}, index int) string {
	if len(row) > index && row[index] != nil {
		return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
	}
	return ""
}

func isHeaderRow(name, invoice, amount string) bool {
	return strings.EqualFold(name, "Name") &&
		strings.EqualFold(invoice, "Invoice ID") &&
		strings.EqualFold(amount, "Amount")
}
