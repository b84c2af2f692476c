package statement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go_crm/internal/model"
)

// EntryType distinguishes statement rows.
type EntryType string

// Statement row types
const (
	EntryInvoice EntryType = "invoice"
	EntryPayment EntryType = "payment"
)

// Row is one line of a company statement. Balance is the running total of
// debits minus credits over the preceding rows of the same currency.
type Row struct {
	Date      string    `json:"date"`
	Type      EntryType `json:"type"`
	Reference string    `json:"reference"`
	Debit     float64   `json:"debit"`
	Credit    float64   `json:"credit"`
	Balance   float64   `json:"balance"`
	Currency  string    `json:"currency"`
}

// Summary holds the derived figures for the selected display currency.
type Summary struct {
	Currency       string  `json:"currency"`
	OpeningBalance float64 `json:"openingBalance"`
	ClosingBalance float64 `json:"closingBalance"`
	TotalDebits    float64 `json:"totalDebits"`
	TotalCredits   float64 `json:"totalCredits"`
}

// Statement is the result of one generation run. Rows holds only the selected
// currency, in display (date) order; Currencies lists every currency that had
// entries in range so the caller can offer the others.
type Statement struct {
	CompanyID  int      `json:"companyId"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Rows       []Row    `json:"rows"`
	Summary    Summary  `json:"summary"`
	Currencies []string `json:"currencies"`
}

// InvoiceSource supplies a company's invoices.
type InvoiceSource interface {
	InvoicesByCompany(ctx context.Context, companyID int) ([]model.Invoice, error)
}

// PaymentSource supplies a company's payments.
type PaymentSource interface {
	PaymentsByCompany(ctx context.Context, companyID int) ([]model.Payment, error)
}

// Engine reconciles a company's invoices and payments into a dated statement
// with running balances. It holds no mutable state; every Generate call works
// on its own copies.
type Engine struct {
	invoices InvoiceSource
	payments PaymentSource
	log      *logrus.Entry
}

// NewEngine creates a statement engine.
func NewEngine(invoices InvoiceSource, payments PaymentSource, logger *logrus.Entry) *Engine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Engine{
		invoices: invoices,
		payments: payments,
		log:      logger.WithField("component", "statement-engine"),
	}
}

// entry is an invoice or payment tagged for reconciliation, before balances
// are computed.
type entry struct {
	date      string
	typ       EntryType
	reference string
	debit     float64
	credit    float64
	currency  string
}

// MonthRange returns the first and last day of t's calendar month, the
// default statement range.
func MonthRange(t time.Time) (from, to string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}

// truncateDate reduces an ISO-8601 timestamp to its YYYY-MM-DD prefix so that
// lexicographic comparison equals chronological comparison.
func truncateDate(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}

// inRange reports whether date falls within [from, to] inclusive.
func inRange(date, from, to string) bool {
	return date >= from && date <= to
}

// Generate builds the statement for a company over [from, to] (inclusive,
// YYYY-MM-DD; both default to the current calendar month when empty).
// currency selects the display currency; empty means the first currency seen.
//
// Invoice and payment fetches run concurrently, and either failure fails the
// whole generation: a statement missing one side would silently misstate the
// balance. An empty range is a valid, empty statement.
func (e *Engine) Generate(ctx context.Context, companyID int, from, to, currency string) (*Statement, error) {
	if from == "" || to == "" {
		defFrom, defTo := MonthRange(time.Now())
		if from == "" {
			from = defFrom
		}
		if to == "" {
			to = defTo
		}
	}
	from, to = truncateDate(from), truncateDate(to)

	var invoices []model.Invoice
	var payments []model.Payment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = e.invoices.InvoicesByCompany(gctx, companyID)
		if err != nil {
			return fmt.Errorf("invoice fetch failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = e.payments.PaymentsByCompany(gctx, companyID)
		if err != nil {
			return fmt.Errorf("payment fetch failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		e.log.WithError(err).WithField("company", companyID).Error("statement generation failed")
		return nil, err
	}

	entries := collectEntries(invoices, payments, from, to)
	partitions, currencies := partitionByCurrency(entries)

	allRows := make([]Row, 0, len(entries))
	for _, cur := range currencies {
		allRows = append(allRows, computeBalances(partitions[cur])...)
	}
	display := mergeForDisplay(allRows)

	if currency == "" && len(currencies) > 0 {
		currency = currencies[0]
	}

	st := &Statement{
		CompanyID:  companyID,
		From:       from,
		To:         to,
		Rows:       filterCurrency(display, currency),
		Currencies: currencies,
	}
	st.Summary = summarize(st.Rows, currency)
	return st, nil
}

// collectEntries filters both collections to the range and tags invoices as
// debits and payments as credits. Order is invoices then payments, each in
// source order; that order is the tie-break for equal dates.
func collectEntries(invoices []model.Invoice, payments []model.Payment, from, to string) []entry {
	entries := make([]entry, 0, len(invoices)+len(payments))
	for _, inv := range invoices {
		date := truncateDate(inv.Date)
		if !inRange(date, from, to) {
			continue
		}
		entries = append(entries, entry{
			date:      date,
			typ:       EntryInvoice,
			reference: inv.Number,
			debit:     inv.Total,
			currency:  inv.Currency,
		})
	}
	for _, pay := range payments {
		date := truncateDate(pay.Date)
		if !inRange(date, from, to) {
			continue
		}
		entries = append(entries, entry{
			date:      date,
			typ:       EntryPayment,
			reference: pay.Reference,
			credit:    pay.Amount,
			currency:  pay.Currency,
		})
	}
	return entries
}

// partitionByCurrency splits entries per currency, preserving order within
// each partition. The returned currency list is in first-seen order so the
// output is deterministic.
func partitionByCurrency(entries []entry) (map[string][]entry, []string) {
	partitions := make(map[string][]entry)
	var currencies []string
	for _, en := range entries {
		if _, ok := partitions[en.currency]; !ok {
			currencies = append(currencies, en.currency)
		}
		partitions[en.currency] = append(partitions[en.currency], en)
	}
	return partitions, currencies
}

// computeBalances date-sorts one currency partition (stable: equal dates keep
// their collect order) and computes the running balance. Balances are final
// after this; nothing downstream recomputes them.
func computeBalances(partition []entry) []Row {
	sorted := make([]entry, len(partition))
	copy(sorted, partition)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].date < sorted[j].date
	})

	rows := make([]Row, 0, len(sorted))
	balance := 0.0
	for _, en := range sorted {
		balance += en.debit - en.credit
		rows = append(rows, Row{
			Date:      en.date,
			Type:      en.typ,
			Reference: en.reference,
			Debit:     en.debit,
			Credit:    en.credit,
			Balance:   balance,
			Currency:  en.currency,
		})
	}
	return rows
}

// mergeForDisplay orders the combined rows by date for presentation. This is
// a separate slice from the per-currency computation on purpose: feeding the
// merged ordering back into balance computation would interleave currencies.
func mergeForDisplay(rows []Row) []Row {
	display := make([]Row, len(rows))
	copy(display, rows)
	sort.SliceStable(display, func(i, j int) bool {
		return display[i].Date < display[j].Date
	})
	return display
}

func filterCurrency(rows []Row, currency string) []Row {
	filtered := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Currency == currency {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// summarize derives the summary figures from the selected currency's rows.
// Opening balance is what the first row started from; with rows restricted to
// the range this is the first row's balance with its own movement undone.
func summarize(rows []Row, currency string) Summary {
	s := Summary{Currency: currency}
	if len(rows) == 0 {
		return s
	}
	first := rows[0]
	s.OpeningBalance = first.Balance - first.Debit + first.Credit
	s.ClosingBalance = rows[len(rows)-1].Balance
	for _, r := range rows {
		s.TotalDebits += r.Debit
		s.TotalCredits += r.Credit
	}
	return s
}
