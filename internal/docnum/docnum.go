package docnum

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Document number prefixes
const (
	PrefixQuotation = "QUO"
	PrefixInvoice   = "INV"
)

// Format builds a document number like INV-2024-0007.
func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// seq extracts the trailing sequence of a document number; 0 for anything it
// cannot parse.
func seq(number string) int {
	idx := strings.LastIndex(number, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(number[idx+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// successor computes the number following last for a prefix and year.
// An empty last starts the sequence at 1.
func successor(prefix string, year int, last string) string {
	return Format(prefix, year, seq(last)+1)
}

// Next allocates the next sequential number for a prefix and year within a
// project. It takes the highest allocated number rather than a row count, so
// deleted documents never cause a number to be reissued. Run it inside the
// transaction that creates the document so two concurrent creates cannot take
// the same sequence.
func Next(tx *gorm.DB, table, projectID, prefix string, year int) (string, error) {
	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)

	// Sequences are zero-padded to four digits; ordering by length first
	// keeps five-digit sequences above four-digit ones.
	var numbers []string
	err := tx.Table(table).
		Where("project_id = ? AND number LIKE ?", projectID, pattern).
		Order("length(number) DESC, number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("failed to find last %s number: %w", prefix, err)
	}

	last := ""
	if len(numbers) > 0 {
		last = numbers[0]
	}
	return successor(prefix, year, last), nil
}
