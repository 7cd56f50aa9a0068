package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	summarySheet  string
}

var _ sheets.Mirror = (*Client)(nil)

// NewFromEnv creates a Sheets client using Service Account credentials.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_SHEET_NAME (default "Expenses"),
// GOOGLE_SUMMARY_SHEET_NAME (default "Summary").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return New(svc, spreadsheetID,
		envOr("GOOGLE_SHEET_NAME", "Expenses"),
		envOr("GOOGLE_SUMMARY_SHEET_NAME", "Summary")), nil
}

func New(svc *gsheet.Service, spreadsheetID, expensesSheet, summarySheet string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		expensesSheet: expensesSheet,
		summarySheet:  summarySheet,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// Mirror clears both tabs and rewrites them from expenses.
func (c *Client) Mirror(ctx context.Context, expenses []core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	expenseRows := sheets.ExpenseRows(expenses)
	summaryRows := sheets.SummaryRows(expenses)

	clearReq := &gsheet.BatchClearValuesRequest{
		Ranges: []string{
			fmt.Sprintf("%s!A:%s", c.expensesSheet, lastColumn(len(sheets.ExpenseHeader))),
			fmt.Sprintf("%s!A:%s", c.summarySheet, lastColumn(len(sheets.SummaryHeader))),
		},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, clearReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}

	update := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data: []*gsheet.ValueRange{
			{Range: c.expensesSheet + "!A1", Values: expenseRows},
			{Range: c.summarySheet + "!A1", Values: summaryRows},
		},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, update).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored expenses to Google Sheets",
		"spreadsheet", c.spreadsheetID,
		"sheet", c.expensesSheet,
		"rows", len(expenseRows)-1)
	return nil
}

// CheckHeader reads the first row of the expenses tab and reports whether it
// matches the expected header. An empty tab counts as a match.
func (c *Client) CheckHeader(ctx context.Context) (bool, error) {
	if c.svc == nil {
		return false, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:%s1", c.expensesSheet, lastColumn(len(sheets.ExpenseHeader)))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) == 0 {
		return true, nil
	}
	got := toStrings(resp.Values[0])
	if len(got) != len(sheets.ExpenseHeader) {
		return false, nil
	}
	for i, h := range sheets.ExpenseHeader {
		if !strings.EqualFold(strings.TrimSpace(got[i]), h) {
			return false, nil
		}
	}
	return true, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// lastColumn returns the column letter for a 1-based index up to 26.
func lastColumn(n int) string {
	if n < 1 {
		n = 1
	}
	if n > 26 {
		n = 26
	}
	return string(rune('A' + n - 1))
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
