package model

// Company represents a customer or supplier company
type Company struct {
	BaseModel
	ProjectID  string `gorm:"type:varchar(36);index;not null" json:"projectId"`
	Name       string `gorm:"type:varchar(128);index;not null" json:"name"`
	VATNumber  string `gorm:"type:varchar(64)" json:"vatNumber"`
	RegNumber  string `gorm:"type:varchar(64)" json:"regNumber"`
	Email      string `gorm:"type:varchar(128)" json:"email"`
	Phone      string `gorm:"type:varchar(32)" json:"phone"`
	Address    string `gorm:"type:varchar(255)" json:"address"`
	PostalCode string `gorm:"type:varchar(16)" json:"postalCode"`
	Notes      string `gorm:"type:text" json:"notes"`
}

// TableName specifies the table name for Company model
func (Company) TableName() string {
	return "companies"
}

// Contact represents a person attached to a company
type Contact struct {
	BaseModel
	ProjectID string `gorm:"type:varchar(36);index;not null" json:"projectId"`
	CompanyID int    `gorm:"index;not null" json:"companyId"`
	Name      string `gorm:"type:varchar(128);not null" json:"name"`
	Title     string `gorm:"type:varchar(64)" json:"title"`
	Email     string `gorm:"type:varchar(128)" json:"email"`
	Phone     string `gorm:"type:varchar(32)" json:"phone"`
}

// TableName specifies the table name for Contact model
func (Contact) TableName() string {
	return "contacts"
}

// Item represents a sellable product or service line
type Item struct {
	BaseModel
	ProjectID   string  `gorm:"type:varchar(36);index;not null" json:"projectId"`
	Code        string  `gorm:"type:varchar(64);index" json:"code"`
	Description string  `gorm:"type:varchar(255);not null" json:"description"`
	UnitPrice   float64 `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
	Currency    string  `gorm:"type:varchar(8);default:'ZAR'" json:"currency"`
	Unit        string  `gorm:"type:varchar(16);default:'ea'" json:"unit"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "items"
}
