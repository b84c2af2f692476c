package model

// Invoice statuses
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Invoice represents an invoice issued to a company. Dates are ISO-8601
// YYYY-MM-DD strings (see Quotation).
type Invoice struct {
	BaseModel
	ProjectID   string        `gorm:"type:varchar(36);index;uniqueIndex:uniq_invoice_number;not null" json:"projectId"`
	Number      string        `gorm:"type:varchar(32);uniqueIndex:uniq_invoice_number;not null" json:"number"`
	CompanyID   int           `gorm:"index;not null" json:"companyId"`
	QuotationID *int          `gorm:"index" json:"quotationId,omitempty"`
	Date        string        `gorm:"type:varchar(10);index;not null" json:"date"`
	DueDate     string        `gorm:"type:varchar(10);index" json:"dueDate"`
	Currency    string        `gorm:"type:varchar(8);default:'ZAR'" json:"currency"`
	Total       float64       `gorm:"type:decimal(14,2);not null;default:0" json:"total"`
	AmountPaid  float64       `gorm:"type:decimal(14,2);not null;default:0" json:"amountPaid"`
	Status      string        `gorm:"type:varchar(16);default:'draft'" json:"status"`
	Notes       string        `gorm:"type:text" json:"notes"`
	Lines       []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`
}

// TableName specifies the table name for Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// Outstanding returns the unpaid remainder of the invoice total.
func (i *Invoice) Outstanding() float64 {
	return i.Total - i.AmountPaid
}

// InvoiceItem is a line on an invoice
type InvoiceItem struct {
	BaseModel
	InvoiceID   int     `gorm:"index;not null" json:"invoiceId"`
	ItemID      int     `gorm:"index" json:"itemId"`
	Description string  `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    float64 `gorm:"type:decimal(12,3);not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
}

// TableName specifies the table name for InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// Payment represents a payment received from a company, optionally allocated
// to a specific invoice.
type Payment struct {
	BaseModel
	ProjectID string  `gorm:"type:varchar(36);index;not null" json:"projectId"`
	Reference string  `gorm:"type:varchar(64);index;not null" json:"reference"`
	CompanyID int     `gorm:"index;not null" json:"companyId"`
	InvoiceID *int    `gorm:"index" json:"invoiceId,omitempty"`
	Date      string  `gorm:"type:varchar(10);index;not null" json:"date"`
	Currency  string  `gorm:"type:varchar(8);default:'ZAR'" json:"currency"`
	Amount    float64 `gorm:"type:decimal(14,2);not null" json:"amount"`
	Method    string  `gorm:"type:varchar(32)" json:"method"`
	Notes     string  `gorm:"type:text" json:"notes"`
}

// TableName specifies the table name for Payment model
func (Payment) TableName() string {
	return "payments"
}
