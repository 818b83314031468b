package amqp

import (
	"encoding/json"
	"time"
)

// Record kinds carried on the sync queue.
const (
	KindTransaction = "transaction"
)

// Sync operations.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// RecordSyncMessage is a lightweight change notification. It carries
// only identifiers; the worker fetches the full record from the
// backend before mirroring it to the spreadsheet.
type RecordSyncMessage struct {
	Kind      string    `json:"kind"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordSyncMessage creates an upsert notification for a record.
func NewRecordSyncMessage(kind, id, userID string) *RecordSyncMessage {
	return &RecordSyncMessage{
		Kind:      kind,
		Op:        OpUpsert,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// NewRecordDeleteMessage creates a delete notification for a record.
func NewRecordDeleteMessage(kind, id, userID string) *RecordSyncMessage {
	return &RecordSyncMessage{
		Kind:      kind,
		Op:        OpDelete,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON creates a message from JSON bytes.
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
