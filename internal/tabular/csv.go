// Package tabular imports and exports the expense log as CSV in the
// spreadsheet column layout: category, amount, date, note.
package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"taktsiv/internal/core"
)

// ImportResult summarizes one import run. Bad rows never abort the run;
// they are skipped, counted and reported back.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Importer posts the parsed rows in one batch. Satisfied by the ledger
// service.
type Importer interface {
	ImportExpenses(ctx context.Context, rows []core.Expense) (int, error)
}

// ReadExpenses parses spreadsheet rows into pre-dated expenses. Rows with a
// missing field, an unknown category, a bad amount or an unparsable date
// are skipped with a warning. A header row is detected by its unparsable
// amount column and skipped silently.
func ReadExpenses(ctx context.Context, r io.Reader, logger *slog.Logger) ([]core.Expense, ImportResult) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []core.Expense
	result := ImportResult{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.skip(ctx, logger, line, fmt.Sprintf("malformed csv: %v", err))
			continue
		}
		if len(record) < 3 {
			result.skip(ctx, logger, line, "missing columns, need category, amount, date")
			continue
		}

		category, err := core.ParseCategory(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			result.skip(ctx, logger, line, fmt.Sprintf("unknown category %q", record[0]))
			continue
		}

		agorot, err := core.ParseDecimalToAgorot(record[1])
		if err != nil {
			result.skip(ctx, logger, line, fmt.Sprintf("bad amount %q", record[1]))
			continue
		}

		date, err := core.ParseCellDate(record[2])
		if err != nil {
			result.skip(ctx, logger, line, fmt.Sprintf("bad date %q", record[2]))
			continue
		}

		note := ""
		if len(record) > 3 {
			note = strings.TrimSpace(record[3])
		}

		rows = append(rows, core.Expense{
			Category: category,
			Amount:   core.Money{Agorot: agorot},
			Date:     date,
			Note:     note,
		})
	}
	return rows, result
}

// Import reads, parses and posts a whole CSV document.
func Import(ctx context.Context, r io.Reader, importer Importer, logger *slog.Logger) (ImportResult, error) {
	rows, result := ReadExpenses(ctx, r, logger)
	if len(rows) == 0 {
		return result, nil
	}
	imported, err := importer.ImportExpenses(ctx, rows)
	if err != nil {
		return result, fmt.Errorf("import expenses: %w", err)
	}
	result.Imported = imported
	return result, nil
}

func (r *ImportResult) skip(ctx context.Context, logger *slog.Logger, line int, reason string) {
	r.Skipped++
	r.Warnings = append(r.Warnings, fmt.Sprintf("row %d: %s", line, reason))
	logger.WarnContext(ctx, "import row skipped",
		"component", "tabular",
		"row", line,
		"reason", reason)
}

// Export writes the expenses as CSV with a header row and RFC3339 dates.
func Export(w io.Writer, expenses []core.Expense) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"category", "amount", "date", "note"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			string(e.Category),
			fmt.Sprintf("%d.%02d", e.Amount.Agorot/100, e.Amount.Agorot%100),
			e.Date.Format(time.RFC3339),
			e.Note,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write expense %s: %w", e.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
