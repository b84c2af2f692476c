package statement

import (
	"context"

	"gorm.io/gorm"

	"go_crm/internal/model"
)

// Source reads invoices and payments from the database. Rows come back in
// creation order (id ascending) so equal-date entries reconcile in the order
// they were captured.
type Source struct {
	db *gorm.DB
}

// NewSource creates a database-backed statement source.
func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

func (s *Source) InvoicesByCompany(ctx context.Context, companyID int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Source) PaymentsByCompany(ctx context.Context, companyID int) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
