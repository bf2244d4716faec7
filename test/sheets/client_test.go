package sheets_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"nest_sales_monitor/internal/sheets"
)

// These tests hit the live Sheets API and only run when pointed at a real
// spreadsheet via SHEETS_TEST_CREDENTIALS_FILE and SHEETS_TEST_SPREADSHEET_ID.

func integrationTarget(t *testing.T) (credentialsFile, spreadsheetID string) {
	t.Helper()
	credentialsFile = os.Getenv("SHEETS_TEST_CREDENTIALS_FILE")
	spreadsheetID = os.Getenv("SHEETS_TEST_SPREADSHEET_ID")
	if credentialsFile == "" || spreadsheetID == "" {
		t.Skip("SHEETS_TEST_CREDENTIALS_FILE and SHEETS_TEST_SPREADSHEET_ID not set")
	}
	return credentialsFile, spreadsheetID
}

func TestNewClient(t *testing.T) {
	credentialsFile, _ := integrationTarget(t)

	ctx := context.Background()
	client, err := sheets.NewClient(ctx, credentialsFile)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if client == nil {
		t.Fatal("Client is nil")
	}
}

func TestReadSheet(t *testing.T) {
	credentialsFile, spreadsheetID := integrationTarget(t)

	ctx := context.Background()
	client, err := sheets.NewClient(ctx, credentialsFile)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.ReadSheet(ctx, spreadsheetID, "Sales!A:D")
	if err != nil {
		t.Fatalf("Failed to read sheet: %v", err)
	}

	if got := client.GetAPICallCount(); got != 1 {
		t.Errorf("Expected 1 API call recorded, got %d", got)
	}
}

func TestEnsureSheet(t *testing.T) {
	credentialsFile, spreadsheetID := integrationTarget(t)

	ctx := context.Background()
	client, err := sheets.NewClient(ctx, credentialsFile)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	tabName := fmt.Sprintf("ensure-%d", time.Now().UnixNano())
	defer deleteWorksheet(t, ctx, credentialsFile, spreadsheetID, tabName)

	if err := client.EnsureSheet(ctx, spreadsheetID, tabName); err != nil {
		t.Fatalf("Failed to create missing worksheet: %v", err)
	}
	// Creating takes a spreadsheet fetch plus a batchUpdate
	if got := client.GetAPICallCount(); got != 2 {
		t.Errorf("Expected 2 API calls to create the worksheet, got %d", got)
	}

	if err := client.EnsureSheet(ctx, spreadsheetID, tabName); err != nil {
		t.Fatalf("Failed on existing worksheet: %v", err)
	}
	// The tab now exists, so the second call stops after the fetch
	if got := client.GetAPICallCount(); got != 3 {
		t.Errorf("Expected 3 API calls after the existing-worksheet pass, got %d", got)
	}
}

// deleteWorksheet removes the test tab so reruns start clean. The client has
// no delete operation, so this goes through the API directly.
func deleteWorksheet(t *testing.T, ctx context.Context, credentialsFile, spreadsheetID, tabName string) {
	t.Helper()

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		t.Logf("Cleanup: failed to create service: %v", err)
		return
	}
	spreadsheet, err := service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		t.Logf("Cleanup: failed to get spreadsheet: %v", err)
		return
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil || sheet.Properties.Title != tabName {
			continue
		}
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{
				{DeleteSheet: &sheetsapi.DeleteSheetRequest{SheetId: sheet.Properties.SheetId}},
			},
		}
		if _, err := service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
			t.Logf("Cleanup: failed to delete worksheet %s: %v", tabName, err)
		}
		return
	}
}
