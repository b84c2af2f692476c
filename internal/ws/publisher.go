package ws

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go_crm/internal/event"
	"go_crm/internal/model"
)

// replayLimit caps how many persisted events a join replay may send.
var replayLimit = 500

// SetReplayLimit overrides the replay cap (wired from config at startup).
func SetReplayLimit(n int) {
	if n > 0 {
		replayLimit = n
	}
}

// PublishDatabaseEvent persists a database-change event and broadcasts it to
// the project's room. The write comes first: the event log is the replay
// source for reconnecting clients, so a mutation must never be broadcast
// without being recorded. Broadcast itself cannot fail the caller's mutation.
//
// eventType is one of event.TypeInsert/TypeUpdate/TypeDelete.
func PublishDatabaseEvent(hub *Hub, db *gorm.DB, projectID, tableName, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	record := model.ChangeEvent{
		ProjectID: projectID,
		TableName: tableName,
		EventType: eventType,
		Payload:   datatypes.JSON(payloadJSON),
	}
	if err := db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to persist change event: %w", err)
	}

	if hub != nil {
		hub.BroadcastDatabaseEvent(event.DatabaseEvent{
			EventID:   record.ID,
			ProjectID: projectID,
			TableName: tableName,
			Type:      eventType,
			Payload:   json.RawMessage(payloadJSON),
		})
	}
	return nil
}

// PublishProjectEvent broadcasts a project-level notification. These are not
// persisted; a client that missed one recovers through its normal refetch.
func PublishProjectEvent(hub *Hub, projectID, kind string, payload interface{}) {
	if hub == nil {
		return
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		hub.log.WithError(err).Error("failed to marshal project event payload")
		return
	}
	hub.BroadcastProjectEvent(event.ProjectEvent{
		ProjectID: projectID,
		Kind:      kind,
		Payload:   json.RawMessage(payloadJSON),
	})
}

// GetIncrementalEvents returns persisted events for a project with
// id > lastEventID, oldest first, limited to maxCount.
func GetIncrementalEvents(db *gorm.DB, projectID string, lastEventID int64, maxCount int) ([]model.ChangeEvent, error) {
	var events []model.ChangeEvent
	err := db.
		Where("project_id = ? AND id > ?", projectID, lastEventID).
		Order("id ASC").
		Limit(maxCount).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query incremental events: %w", err)
	}
	return events, nil
}

// GetLatestEventID returns the newest persisted event id for a project,
// or 0 when the project has no events yet.
func GetLatestEventID(db *gorm.DB, projectID string) (int64, error) {
	var ev model.ChangeEvent
	err := db.
		Where("project_id = ?", projectID).
		Order("id DESC").
		Limit(1).
		First(&ev).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query latest event: %w", err)
	}
	return ev.ID, nil
}
