package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// SaleRecord is one sale harvested from an expanded leaderboard entry.
type SaleRecord struct {
	Name      string
	InvoiceID string
	Amount    string
}

// Key returns the duplicate-detection key for the record. Invoice and
// amount are canonicalized so the sheet's numeric coercion cannot make a
// recorded sale look new. The write-time timestamp column is deliberately
// not part of it.
func (r SaleRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s",
		strings.TrimSpace(r.Name),
		CanonicalInvoice(r.InvoiceID),
		CanonicalAmount(r.Amount))
}

var (
	nameRe = regexp.MustCompile(`#\d+\s+(.+)`)
	saleRe = regexp.MustCompile(`(?i)Sale of Rs\.?\s*([\d,]+\.?\d*).*?Invoice ID:\s*#?(\d+)`)
)

// Records parses the rendered page HTML into the ordered list of sales.
// Entries that fail to parse are skipped with a log; only a document that
// cannot be read at all is an error.
func Records(pageHTML, entrySelector string) ([]SaleRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var records []SaleRecord
	doc.Find(entrySelector).Each(func(i int, entry *goquery.Selection) {
		records = append(records, entryRecords(i+1, entry)...)
	})

	log.Debug().Int("records", len(records)).Msg("Extracted sale records")
	return records, nil
}

// entryRecords pulls every sale line out of one leaderboard entry.
func entryRecords(entryNum int, entry *goquery.Selection) []SaleRecord {
	text := blockText(entry)

	name := entryName(text)
	if name == "" {
		log.Debug().Int("entry", entryNum).Msg("Skipping entry with no rank line")
		return nil
	}

	matches := saleRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		log.Debug().
			Int("entry", entryNum).
			Str("name", name).
			Msg("Skipping entry with no sale lines")
		return nil
	}

	records := make([]SaleRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, SaleRecord{
			Name:      name,
			InvoiceID: m[2],
			Amount:    strings.ReplaceAll(m[1], ",", ""),
		})
	}
	return records
}

// entryName matches the seller name out of the entry's first text line,
// which carries the leaderboard rank ("#3 Alice").
func entryName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := nameRe.FindStringSubmatch(line)
		if m == nil {
			return ""
		}
		return strings.TrimSpace(m[1])
	}
	return ""
}

// CanonicalAmount normalizes an amount for key comparisons: commas are
// stripped and numeric values are reformatted, so "1,500.00" read back from
// the sheet as "1500" still matches. Non-numeric input falls back to the
// comma-stripped string.
func CanonicalAmount(raw string) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CanonicalInvoice normalizes an invoice ID for key comparisons: the sheet
// stores the ID as a number, so a zero-padded "0042" reads back as "42".
// Non-numeric input falls back to the trimmed string.
func CanonicalInvoice(raw string) string {
	s := strings.TrimSpace(raw)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return s
	}
	return strconv.FormatUint(n, 10)
}
