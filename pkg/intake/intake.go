// Package intake reads uploaded ledger files (.xlsx or .csv) into raw
// records, rejecting files that lack the required columns before any
// computation runs.
package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/quantifin/cashplan/pkg/models"
)

// requiredColumns must all be present in the header row, after
// normalization (lower-cased, spaces collapsed to underscores).
var requiredColumns = []string{
	"counterparty",
	"category",
	"amount",
	"billed_date",
	"actual_paid_date",
	"due_date",
}

// SchemaError reports required columns missing from an uploaded file.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseFile reads an uploaded ledger file into rows of cells. The format
// is chosen by file extension; the first sheet is used for workbooks.
func ParseFile(r io.Reader, filename string) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		return cr.ReadAll()
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("could not open workbook: %w", err)
		}
		defer f.Close()
		return f.GetRows(f.GetSheetName(0))
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// DecodeTable maps a header row plus data rows onto raw ledger records.
// Column order is free; extra columns are ignored. Fully empty rows
// (common as trailing rows in spreadsheets) are skipped.
func DecodeTable(rows [][]string) ([]models.RawRecord, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: requiredColumns}
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[normalizeHeader(h)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	raw := make([]models.RawRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		cell := func(name string) string {
			if i := col[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		category, err := parseCategory(cell("category"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(cell("amount"), ",", ""))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad amount %q", n+1, cell("amount"))
		}

		raw = append(raw, models.RawRecord{
			Counterparty:   cell("counterparty"),
			Category:       category,
			Amount:         amount,
			BilledDate:     cell("billed_date"),
			ActualPaidDate: cell("actual_paid_date"),
			DueDate:        cell("due_date"),
		})
	}
	return raw, nil
}

func parseCategory(s string) (models.Category, error) {
	switch strings.ToLower(s) {
	case string(models.CategoryReceivable):
		return models.CategoryReceivable, nil
	case string(models.CategoryPayable):
		return models.CategoryPayable, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
