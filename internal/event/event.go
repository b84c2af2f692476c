package event

import "encoding/json"

// Event type constants for database-change events
const (
	TypeInsert = "insert"
	TypeUpdate = "update"
	TypeDelete = "delete"
)

// Message kinds exchanged over the websocket channel
const (
	KindConnected    = "connected"
	KindDBChange     = "db_change"
	KindProjectEvent = "project_event"
	KindJoin         = "join"
	KindLeave        = "leave"
)

// Envelope is the outer frame for every message on the channel.
// Data holds the kind-specific payload.
type Envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DatabaseEvent notifies that a row in a named table was inserted,
// updated or deleted within a project.
type DatabaseEvent struct {
	EventID   int64           `json:"eventId,omitempty"`
	ProjectID string          `json:"projectId"`
	TableName string          `json:"tableName"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ProjectEvent is a project-scoped notification that is not a table mutation
// (e.g. "invoice:overdue").
type ProjectEvent struct {
	ProjectID string          `json:"projectId"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RoomRequest is sent by clients to join or leave a project room.
// LastEventID, when set on a join, asks the server to replay persisted
// database events with id > LastEventID for that project.
type RoomRequest struct {
	ProjectID   string `json:"projectId"`
	LastEventID int64  `json:"lastEventId,omitempty"`
}

// Marshal wraps a payload into an Envelope of the given kind.
func Marshal(kind string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Kind: kind, Data: data})
}
