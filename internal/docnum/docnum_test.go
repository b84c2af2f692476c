package docnum

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		prefix string
		year   int
		seq    int
		want   string
	}{
		{PrefixInvoice, 2024, 1, "INV-2024-0001"},
		{PrefixInvoice, 2024, 42, "INV-2024-0042"},
		{PrefixQuotation, 2023, 9999, "QUO-2023-9999"},
		{PrefixInvoice, 2025, 10000, "INV-2025-10000"},
	}
	for _, tt := range tests {
		if got := Format(tt.prefix, tt.year, tt.seq); got != tt.want {
			t.Errorf("Format(%s, %d, %d) = %q, want %q", tt.prefix, tt.year, tt.seq, got, tt.want)
		}
	}
}

func TestSuccessor(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"empty starts at one", "", "QUO-2024-0001"},
		{"increments", "QUO-2024-0041", "QUO-2024-0042"},
		{"grows past the padding", "QUO-2024-9999", "QUO-2024-10000"},
		{"continues past the padding", "QUO-2024-10000", "QUO-2024-10001"},
		{"garbage restarts the sequence", "QUO-2024-abc", "QUO-2024-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := successor(PrefixQuotation, 2024, tt.last); got != tt.want {
				t.Errorf("successor(%q) = %q, want %q", tt.last, got, tt.want)
			}
		})
	}
}

// Two projects must be able to hold the same number: allocation is per
// project and the uniqueness constraint is (project_id, number). The highest
// existing number, not the row count, drives the sequence, so deleting a
// document never frees its number for reuse.
func TestSuccessor_IndependentOfRowCount(t *testing.T) {
	// After QUO-2024-0001..0003 with 0002 deleted, the max is still 0003.
	if got := successor(PrefixQuotation, 2024, "QUO-2024-0003"); got != "QUO-2024-0004" {
		t.Errorf("successor after delete = %q, want QUO-2024-0004", got)
	}
}
