package extract

import (
	"testing"
)

const entrySelector = "div.p-4.transition"

const leaderboardHTML = `
<html><body>
<div class="container">
  <div class="p-4 transition">
    <div class="font-bold">#1 Alice Sharma</div>
    <div class="details">
      <p>Sale of Rs. 1,500.00 completed today. Invoice ID: #1001</p>
      <p>Sale of Rs. 250 completed yesterday. Invoice ID: #1002</p>
    </div>
  </div>
  <div class="p-4 transition">
    <div class="font-bold">#2 Bikash Thapa</div>
    <div class="details">
      <p>sale of rs 980.50 completed. invoice id: 2001</p>
    </div>
  </div>
  <div class="p-4 transition">
    <div class="font-bold">No rank prefix here</div>
    <div class="details">
      <p>Sale of Rs. 300 completed. Invoice ID: #3001</p>
    </div>
  </div>
  <div class="p-4 transition">
    <div class="font-bold">#4 Deepa Rai</div>
    <div class="details">
      <p>Sale of Rs. 75 still pending, no invoice yet</p>
    </div>
  </div>
  <div class="p-4 transition">
    <div class="font-bold">#5 Eliza Gurung</div>
    <div class="details">
      <p>Sale of Rs. 4,000 completed. Invoice ID: #5001</p>
    </div>
  </div>
</div>
</body></html>`

func TestRecords(t *testing.T) {
	records, err := Records(leaderboardHTML, entrySelector)
	if err != nil {
		t.Fatalf("Expected successful extraction, got error: %v", err)
	}

	want := []SaleRecord{
		{Name: "Alice Sharma", InvoiceID: "1001", Amount: "1500.00"},
		{Name: "Alice Sharma", InvoiceID: "1002", Amount: "250"},
		{Name: "Bikash Thapa", InvoiceID: "2001", Amount: "980.50"},
		{Name: "Eliza Gurung", InvoiceID: "5001", Amount: "4000"},
	}

	if len(records) != len(want) {
		t.Fatalf("Expected %d records, got %d: %+v", len(want), len(records), records)
	}
	for i, w := range want {
		if records[i] != w {
			t.Errorf("Record %d: expected %+v, got %+v", i, w, records[i])
		}
	}
}

func TestRecordsMalformedEntriesDoNotAbort(t *testing.T) {
	// The unranked entry and the invoice-less entry sit between valid ones;
	// extraction must continue past them.
	records, err := Records(leaderboardHTML, entrySelector)
	if err != nil {
		t.Fatalf("Expected successful extraction, got error: %v", err)
	}

	for _, r := range records {
		if r.Name == "" || r.InvoiceID == "" || r.Amount == "" {
			t.Errorf("Expected only complete records, got %+v", r)
		}
	}
	if len(records) == 0 {
		t.Fatal("Expected records after the malformed entries, got none")
	}
	if got := records[len(records)-1].Name; got != "Eliza Gurung" {
		t.Errorf("Expected extraction to reach the last entry, got final name %q", got)
	}
}

func TestRecordsSaleSpanningLinesIsIgnored(t *testing.T) {
	pageHTML := `
<div class="p-4 transition">
  <div>#1 Alice</div>
  <div>Sale of Rs. 100 completed</div>
  <div>Invoice ID: #9</div>
</div>`

	records, err := Records(pageHTML, entrySelector)
	if err != nil {
		t.Fatalf("Expected successful extraction, got error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records when amount and invoice are on separate lines, got %+v", records)
	}
}

func TestRecordsNoEntries(t *testing.T) {
	records, err := Records("<html><body><p>maintenance</p></body></html>", entrySelector)
	if err != nil {
		t.Fatalf("Expected successful extraction, got error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"ranked", "\n#12 Alice Sharma\nSale of Rs. 10", "Alice Sharma"},
		{"leading blanks", "\n\n  \n#1 Bikash\n", "Bikash"},
		{"unranked first line", "Top seller\n#1 Alice\n", ""},
		{"empty", "", ""},
		{"trailing spaces", "#3 Deepa Rai  \n", "Deepa Rai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryName(tt.text); got != tt.want {
				t.Errorf("Expected name %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCanonicalAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,500.00", "1500"},
		{"1500", "1500"},
		{"50.5", "50.5"},
		{"50.50", "50.5"},
		{"1,234", "1234"},
		{" 250 ", "250"},
		{"", ""},
		{"n/a", "n/a"},
	}

	for _, tt := range tests {
		if got := CanonicalAmount(tt.in); got != tt.want {
			t.Errorf("CanonicalAmount(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestCanonicalInvoice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0042", "42"},
		{"42", "42"},
		{" 1001 ", "1001"},
		{"", ""},
		{"INV-7", "INV-7"},
	}

	for _, tt := range tests {
		if got := CanonicalInvoice(tt.in); got != tt.want {
			t.Errorf("CanonicalInvoice(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSaleRecordKey(t *testing.T) {
	a := SaleRecord{Name: " Alice ", InvoiceID: "1001", Amount: "1,500.00"}
	b := SaleRecord{Name: "Alice", InvoiceID: "1001", Amount: "1500"}

	if a.Key() != b.Key() {
		t.Errorf("Expected equal keys, got %q and %q", a.Key(), b.Key())
	}
	if a.Key() != "Alice|1001|1500" {
		t.Errorf("Expected key Alice|1001|1500, got %q", a.Key())
	}

	// The sheet stores the invoice as a number, so any zero padding in the
	// scraped ID is gone on read-back.
	padded := SaleRecord{Name: "Alice", InvoiceID: "01001", Amount: "1500"}
	if a.Key() != padded.Key() {
		t.Errorf("Expected zero-padded invoice to produce the same key, got %q and %q", a.Key(), padded.Key())
	}

	c := SaleRecord{Name: "Alice", InvoiceID: "1002", Amount: "1500"}
	if a.Key() == c.Key() {
		t.Error("Expected different invoices to produce different keys")
	}
}
