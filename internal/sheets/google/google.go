// Package google mirrors the expense log into a Google Sheets spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"taktsiv/internal/core"
	ports "taktsiv/internal/sheets"
)

// Row layout: A=ID, B=Date, C=Category, D=Amount, E=Note, F=Month.
const rowSpan = "A:F"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Expenses"); the year is prefixed per sheet.
	sheetBase string
}

var _ ports.ExpenseMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Expenses").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "Expenses"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// newSheetsService initializes a Sheets Service. Service account
// credentials are tried first; a user OAuth token from the oauth-init
// utility is the fallback.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return newOAuthSheetsService(ctx)
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newOAuthSheetsService builds a service from an OAuth client config and a
// saved user token, both produced by cmd/oauth-init.
func newOAuthSheetsService(ctx context.Context) (*gsheet.Service, error) {
	clientJSON := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"))
	clientFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))

	var b []byte
	var err error
	switch {
	case clientJSON != "":
		b = []byte(clientJSON)
	case clientFile != "":
		b, err = os.ReadFile(clientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
	default:
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or GOOGLE_OAUTH_CLIENT_JSON/FILE)")
	}

	cfg, err := google.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"))
	if tokenFile == "" {
		tokenFile = "token.json"
	}
	tokenJSON, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file (run oauth-init first): %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	service, err := gsheet.NewService(ctx,
		goption.WithTokenSource(cfg.TokenSource(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// yearPrefixedName returns "<year> <base>", e.g. "2025 Expenses".
func yearPrefixedName(base string, year int) string {
	return fmt.Sprintf("%d %s", year, base)
}

func (c *Client) sheetFor(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

// searchSheets lists the year sheets an ID lookup visits, newest first.
func (c *Client) searchSheets(year int) []string {
	return []string{c.sheetFor(year), c.sheetFor(year - 1)}
}

func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := c.sheetFor(e.Date.Year())

	// Find the next empty row from the ID column.
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:F%d", sheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{expenseRow(e)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Expense mirrored to sheet",
		"sheet", sheet,
		"row", nextRow,
		"id", e.ID)
	return dataRange, nil
}

// DeleteExpense removes the row whose ID column matches. The event only
// carries the expense ID, so the current year's sheet is searched first
// and the previous year's second: early-January deletes still reach rows
// mirrored in December. A row that is already gone counts as deleted.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	for i, sheet := range c.searchSheets(time.Now().In(core.Location()).Year()) {
		rowIndex, err := c.findRowByID(ctx, sheet, id)
		if err != nil {
			if i == 0 {
				return err
			}
			// The previous year's sheet may simply not exist yet.
			slog.WarnContext(ctx, "Fallback sheet lookup failed",
				"sheet", sheet, "error", err)
			break
		}
		if rowIndex >= 0 {
			return c.deleteRows(ctx, sheet, rowIndex, rowIndex+1)
		}
	}

	slog.WarnContext(ctx, "Expense row not found in sheets, nothing to delete",
		"id", id)
	return nil
}

// ReplaceMonth drops every row of the month and appends the given expenses.
func (c *Client) ReplaceMonth(ctx context.Context, month string, expenses []core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if !core.ValidMonthKey(month) {
		return fmt.Errorf("invalid month key: %q", month)
	}

	year := 0
	fmt.Sscanf(month[3:], "%d", &year)
	sheet := c.sheetFor(year)

	rng := fmt.Sprintf("%s!%s", sheet, rowSpan)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	// Delete month rows bottom-up so indices stay valid.
	for i := len(resp.Values) - 1; i >= 0; i-- {
		row := resp.Values[i]
		if len(row) >= 6 && fmt.Sprint(row[5]) == month {
			if err := c.deleteRows(ctx, sheet, i, i+1); err != nil {
				return err
			}
		}
	}

	if len(expenses) == 0 {
		return nil
	}
	values := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		values = append(values, expenseRow(e))
	}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append month %s rows: %w", month, err)
	}

	slog.InfoContext(ctx, "Month re-mirrored to sheet",
		"sheet", sheet,
		"month", month,
		"rows", len(expenses))
	return nil
}

func (c *Client) findRowByID(ctx context.Context, sheet, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return -1, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			return i, nil
		}
	}
	return -1, nil
}

// deleteRows removes [start, end) zero-based row indices via a structural
// batch update, which needs the numeric sheet ID.
func (c *Client) deleteRows(ctx context.Context, sheet string, start, end int) error {
	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(start),
					EndIndex:   int64(end),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete rows %d:%d in %s: %w", start, end, sheet, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}

func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.In(core.Location()).Format("02.01.2006"),
		string(e.Category),
		e.Amount.Shekels(),
		e.Note,
		core.MonthKey(e.Date),
	}
}
