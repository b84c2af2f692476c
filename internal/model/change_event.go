package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChangeEvent is a persisted database-change event. It is written before the
// event is broadcast so that a reconnecting client can replay what it missed.
type ChangeEvent struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID string         `gorm:"column:project_id;type:varchar(36);not null;index:idx_project_id" json:"project_id"`
	TableName string         `gorm:"column:table_name;type:varchar(64);not null;index:idx_project_id" json:"table_name"`
	EventType string         `gorm:"column:event_type;type:enum('insert','update','delete');not null" json:"event_type"`
	Payload   datatypes.JSON `gorm:"column:payload;type:json" json:"payload"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
