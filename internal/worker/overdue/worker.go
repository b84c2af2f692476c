package overdue

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_crm/internal/event"
	"go_crm/internal/model"
	"go_crm/internal/ws"
)

// Worker periodically flips unpaid invoices whose due date has passed to the
// overdue status and notifies subscribed clients.
type Worker struct {
	ctx       context.Context
	cancel    context.CancelFunc
	db        *gorm.DB
	hub       *ws.Hub
	logger    *logrus.Entry
	interval  time.Duration
	batchSize int
}

// Config holds the configuration for the overdue scanner.
type Config struct {
	DB          *gorm.DB
	Hub         *ws.Hub
	Logger      *logrus.Entry
	IntervalSec int
	BatchSize   int
}

// NewWorker creates a new overdue invoice worker.
func NewWorker(cfg *Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	interval := cfg.IntervalSec
	if interval <= 0 {
		interval = 300
	}
	return &Worker{
		ctx:       ctx,
		cancel:    cancel,
		db:        cfg.DB,
		hub:       cfg.Hub,
		logger:    cfg.Logger.WithField("component", "overdue-worker"),
		interval:  time.Duration(interval) * time.Second,
		batchSize: batch,
	}
}

// Start begins the periodic scans.
func (w *Worker) Start() {
	w.logger.Info("Starting overdue invoice worker...")
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runScan()
			case <-w.ctx.Done():
				w.logger.Info("Stopping overdue invoice worker...")
				return
			}
		}
	}()
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.cancel()
}

// IsOverdue reports whether an invoice should be flagged overdue as of the
// given date (YYYY-MM-DD). Draft invoices are never overdue: they were never
// sent, so the customer owes nothing yet.
func IsOverdue(inv *model.Invoice, today string) bool {
	switch inv.Status {
	case model.InvoiceStatusDraft, model.InvoiceStatusPaid, model.InvoiceStatusOverdue:
		return false
	}
	if inv.DueDate == "" {
		return false
	}
	if inv.Outstanding() <= 0 {
		return false
	}
	return inv.DueDate < today
}

func (w *Worker) runScan() {
	today := time.Now().Format("2006-01-02")

	var invoices []model.Invoice
	err := w.db.
		Where("status IN ?", []string{model.InvoiceStatusSent, model.InvoiceStatusPartial}).
		Where("due_date <> '' AND due_date < ?", today).
		Limit(w.batchSize).
		Find(&invoices).Error
	if err != nil {
		w.logger.Errorf("Failed to fetch invoices for overdue scan: %v", err)
		return
	}

	for i := range invoices {
		inv := &invoices[i]
		if !IsOverdue(inv, today) {
			continue
		}
		if err := w.markOverdue(inv); err != nil {
			w.logger.Errorf("Failed to mark invoice %d overdue: %v", inv.ID, err)
		}
	}
}

func (w *Worker) markOverdue(inv *model.Invoice) error {
	if err := w.db.Model(inv).Update("status", model.InvoiceStatusOverdue).Error; err != nil {
		return err
	}
	inv.Status = model.InvoiceStatusOverdue

	w.logger.WithFields(logrus.Fields{
		"invoice": inv.Number,
		"dueDate": inv.DueDate,
	}).Info("Invoice marked overdue")

	if w.hub != nil {
		if err := ws.PublishDatabaseEvent(w.hub, w.db, inv.ProjectID, inv.TableName(), event.TypeUpdate, inv); err != nil {
			w.logger.Errorf("Failed to publish overdue change for invoice %d: %v", inv.ID, err)
		}
		ws.PublishProjectEvent(w.hub, inv.ProjectID, "invoice:overdue", inv)
	}
	return nil
}
