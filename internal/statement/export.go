package statement

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV renders the statement as CSV: one record per row followed by the
// summary figures, amounts formatted with two decimals.
func WriteCSV(w io.Writer, st *Statement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "type", "reference", "debit", "credit", "balance", "currency"}); err != nil {
		return err
	}
	for _, r := range st.Rows {
		record := []string{
			r.Date,
			string(r.Type),
			r.Reference,
			money(r.Debit),
			money(r.Credit),
			money(r.Balance),
			r.Currency,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	summary := [][]string{
		{},
		{"opening balance", "", "", "", "", money(st.Summary.OpeningBalance), st.Summary.Currency},
		{"total debits", "", "", money(st.Summary.TotalDebits), "", "", st.Summary.Currency},
		{"total credits", "", "", "", money(st.Summary.TotalCredits), "", st.Summary.Currency},
		{"closing balance", "", "", "", "", money(st.Summary.ClosingBalance), st.Summary.Currency},
	}
	for _, record := range summary {
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
