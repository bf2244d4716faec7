package sheets

import (
	"fmt"
	"strings"
	"time"

	"nest_sales_monitor/internal/extract"

	"github.com/rs/zerolog/log"
)

// HeaderRow holds the ledger column titles, in column order.
var HeaderRow = []interface{}{"Timestamp", "Name", "Invoice ID", "Amount"}

// timestampLayout is the write-time format of the first ledger column.
const timestampLayout = "2006-01-02 15:04:05"

// SheetName extracts the worksheet name from an A1 range like "Sales!A1".
func SheetName(sheetRange string) string {
	return strings.Split(sheetRange, "!")[0]
}

// ReadRange derives the whole-ledger read range (all rows, the four ledger
// columns) from the configured append range.
func ReadRange(sheetRange string) string {
	return SheetName(sheetRange) + "!A:D"
}

// NeedsHeader reports whether the ledger is empty and should receive the
// header row ahead of the first data rows.
func NeedsHeader(existingData [][]interface{}) bool {
	return len(existingData) == 0
}

// CheckHeader warns when the sheet's first row does not carry the expected
// column titles. A reordered sheet would otherwise corrupt duplicate
// detection silently.
func CheckHeader(existingData [][]interface{}) {
	if len(existingData) == 0 {
		return
	}

	first := existingData[0]
	for i, col := range HeaderRow {
		want := col.(string)
		got := ""
		if len(first) > i && first[i] != nil {
			got = strings.TrimSpace(fmt.Sprintf("%v", first[i]))
		}
		if !strings.EqualFold(got, want) {
			log.Warn().
				Int("column", i+1).
				Str("expected", want).
				Str("found", got).
				Msg("Sheet header does not match the ledger columns")
			return
		}
	}
}

// BuildSaleRows converts new sales into ledger rows, prefixed with the
// header row when the sheet is still empty.
func BuildSaleRows(records []extract.SaleRecord, recordedAt time.Time, withHeader bool) [][]interface{} {
	timestamp := recordedAt.Format(timestampLayout)

	rows := make([][]interface{}, 0, len(records)+1)
	if withHeader {
		rows = append(rows, HeaderRow)
	}
	for _, r := range records {
		rows = append(rows, []interface{}{timestamp, r.Name, r.InvoiceID, r.Amount})
	}
	return rows
}
