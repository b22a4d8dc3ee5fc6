package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"bilancio/internal/core"
)

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestWriteCSV(t *testing.T) {
	txs := []core.Transaction{
		{
			Amount:      core.Money{Cents: 4250},
			Description: "groceries",
			CategoryID:  "1",
			Date:        mustDate(t, "2024-03-15"),
			Kind:        core.Expense,
		},
		{
			Amount:      core.Money{Cents: 200000},
			Description: "salary",
			CategoryID:  "gone",
			Date:        mustDate(t, "2024-03-01"),
			Kind:        core.Income,
		},
	}
	cats := []core.Category{{ID: "1", Name: "Food & Dining", Color: "#F59E0B"}}

	var buf strings.Builder
	if err := WriteCSV(&buf, txs, cats); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != `"Date","Description","Category","Amount","Type"` {
		t.Fatalf("header = %s", lines[0])
	}
	if lines[1] != `"2024-03-15","groceries","Food & Dining","42.50","expense"` {
		t.Fatalf("row 1 = %s", lines[1])
	}
	if !strings.Contains(lines[2], `"Unknown"`) {
		t.Fatalf("orphaned category should export as Unknown: %s", lines[2])
	}

	// The output must stay parseable by a standard CSV reader.
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	for i, rec := range records {
		if len(rec) != 5 {
			t.Fatalf("row %d has %d fields, want 5", i, len(rec))
		}
	}
}

func TestWriteCSVQuotesEmbeddedQuotes(t *testing.T) {
	txs := []core.Transaction{
		{
			Amount:      core.Money{Cents: 1500},
			Description: `dinner at "Mario's", downtown`,
			CategoryID:  "1",
			Date:        mustDate(t, "2024-01-01"),
			Kind:        core.Expense,
		},
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, txs, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if records[1][1] != `dinner at "Mario's", downtown` {
		t.Fatalf("description round trip = %q", records[1][1])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("empty export should contain only the header: %q", buf.String())
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 7, 9, 15, 30, 0, 0, time.UTC)
	if got := Filename(ts); got != "expenses_2024-07-09.csv" {
		t.Fatalf("Filename() = %q", got)
	}
}
