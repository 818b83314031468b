// Package export renders ledger data as CSV, PDF and chart images.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"moneygrowth/internal/core"
)

// WriteTransactionsCSV streams transactions as CSV with a header row.
// Amounts are decimal currency, not cents, for spreadsheet use.
func WriteTransactionsCSV(w io.Writer, transactions []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "type", "description", "category", "amount"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range transactions {
		record := []string{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			t.Description,
			t.Category,
			core.FormatCents(t.Amount.Cents),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
