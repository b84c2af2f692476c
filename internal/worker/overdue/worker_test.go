package overdue

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"go_crm/internal/model"
)

// A zero or negative interval must not reach time.NewTicker.
func TestNewWorkerDefaultsInterval(t *testing.T) {
	for _, sec := range []int{0, -5} {
		w := NewWorker(&Config{
			Logger:      logrus.NewEntry(logrus.New()),
			IntervalSec: sec,
		})
		if w.interval <= 0 {
			t.Errorf("IntervalSec=%d produced non-positive ticker interval %v", sec, w.interval)
		}
		if w.interval != 300*time.Second {
			t.Errorf("IntervalSec=%d interval = %v, want default 300s", sec, w.interval)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	today := "2024-03-15"

	tests := []struct {
		name string
		inv  model.Invoice
		want bool
	}{
		{
			name: "sent and past due",
			inv:  model.Invoice{Status: model.InvoiceStatusSent, DueDate: "2024-03-01", Total: 100},
			want: true,
		},
		{
			name: "partial and past due",
			inv:  model.Invoice{Status: model.InvoiceStatusPartial, DueDate: "2024-03-01", Total: 100, AmountPaid: 40},
			want: true,
		},
		{
			name: "due today is not overdue",
			inv:  model.Invoice{Status: model.InvoiceStatusSent, DueDate: today, Total: 100},
			want: false,
		},
		{
			name: "due in the future",
			inv:  model.Invoice{Status: model.InvoiceStatusSent, DueDate: "2024-04-01", Total: 100},
			want: false,
		},
		{
			name: "draft is never overdue",
			inv:  model.Invoice{Status: model.InvoiceStatusDraft, DueDate: "2024-03-01", Total: 100},
			want: false,
		},
		{
			name: "paid is never overdue",
			inv:  model.Invoice{Status: model.InvoiceStatusPaid, DueDate: "2024-03-01", Total: 100, AmountPaid: 100},
			want: false,
		},
		{
			name: "already overdue stays put",
			inv:  model.Invoice{Status: model.InvoiceStatusOverdue, DueDate: "2024-03-01", Total: 100},
			want: false,
		},
		{
			name: "fully paid but not yet statused",
			inv:  model.Invoice{Status: model.InvoiceStatusSent, DueDate: "2024-03-01", Total: 100, AmountPaid: 100},
			want: false,
		},
		{
			name: "no due date",
			inv:  model.Invoice{Status: model.InvoiceStatusSent, Total: 100},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(&tt.inv, today); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}
