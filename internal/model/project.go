package model

// Project is the tenancy scope for CRM data. Realtime events are delivered
// to clients that joined the project's room.
type Project struct {
	BaseModel
	PublicID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"publicId"`
	Name     string `gorm:"type:varchar(128);not null" json:"name"`
	Currency string `gorm:"type:varchar(8);default:'ZAR'" json:"currency"`
}

// TableName specifies the table name for Project model
func (Project) TableName() string {
	return "projects"
}
