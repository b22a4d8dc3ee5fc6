// Package export renders a user's transactions as CSV.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"bilancio/internal/core"
)

var header = []string{"Date", "Description", "Category", "Amount", "Type"}

// WriteCSV writes the header row followed by one row per transaction.
// Every cell is quoted, including numeric ones, so spreadsheet imports
// treat all columns uniformly.
func WriteCSV(w io.Writer, txs []core.Transaction, categories []core.Category) error {
	byID := core.CategoryByID(categories)

	if err := writeRow(w, header); err != nil {
		return err
	}

	for _, t := range txs {
		name := core.UnknownCategoryName
		if cat, ok := byID[t.CategoryID]; ok {
			name = cat.Name
		}

		row := []string{
			t.Date.String(),
			t.Description,
			name,
			t.Amount.DecimalString(),
			string(t.Kind),
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}

	return nil
}

// Filename returns the download name for an export generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("expenses_%s.csv", t.Format("2006-01-02"))
}

func writeRow(w io.Writer, cells []string) error {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	if _, err := io.WriteString(w, strings.Join(quoted, ",")+"\n"); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}
