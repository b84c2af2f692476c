package model

// Quotation statuses
const (
	QuotationStatusDraft     = "draft"
	QuotationStatusSent      = "sent"
	QuotationStatusAccepted  = "accepted"
	QuotationStatusDeclined  = "declined"
	QuotationStatusConverted = "converted"
)

// Quotation represents a quotation issued to a company.
// Date fields are ISO-8601 YYYY-MM-DD strings; chronological ordering of two
// dates is their lexicographic ordering.
type Quotation struct {
	BaseModel
	ProjectID string          `gorm:"type:varchar(36);index;uniqueIndex:uniq_quotation_number;not null" json:"projectId"`
	Number    string          `gorm:"type:varchar(32);uniqueIndex:uniq_quotation_number;not null" json:"number"`
	CompanyID int             `gorm:"index;not null" json:"companyId"`
	Date      string          `gorm:"type:varchar(10);index;not null" json:"date"`
	ValidTo   string          `gorm:"type:varchar(10)" json:"validTo"`
	Currency  string          `gorm:"type:varchar(8);default:'ZAR'" json:"currency"`
	Total     float64         `gorm:"type:decimal(14,2);not null;default:0" json:"total"`
	Status    string          `gorm:"type:varchar(16);default:'draft'" json:"status"`
	Notes     string          `gorm:"type:text" json:"notes"`
	Lines     []QuotationItem `gorm:"foreignKey:QuotationID" json:"lines,omitempty"`
}

// TableName specifies the table name for Quotation model
func (Quotation) TableName() string {
	return "quotations"
}

// QuotationItem is a line on a quotation
type QuotationItem struct {
	BaseModel
	QuotationID int     `gorm:"index;not null" json:"quotationId"`
	ItemID      int     `gorm:"index" json:"itemId"`
	Description string  `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    float64 `gorm:"type:decimal(12,3);not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
}

// TableName specifies the table name for QuotationItem model
func (QuotationItem) TableName() string {
	return "quotation_items"
}
