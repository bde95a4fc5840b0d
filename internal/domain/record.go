package domain

import (
	"encoding/json"
	"time"
)

type RecordStatus string

const (
	RecordStatusPending RecordStatus = "pending"
	RecordStatusSent    RecordStatus = "sent"
	RecordStatusFailed  RecordStatus = "failed"
)

// Terminal reports whether the status is an end state. A record transitions
// pending -> sent or pending -> failed exactly once and is never deleted.
func (s RecordStatus) Terminal() bool {
	return s == RecordStatusSent || s == RecordStatusFailed
}

// NotificationRecord is the audit row for one delivery attempt. EntityID and
// ActorID are nullable because operator test sends have neither.
type NotificationRecord struct {
	ID          string
	ProjectID   string
	EntityID    *string
	ActorID     *string
	EventType   EventType
	Status      RecordStatus
	RemoteRunID *string
	ErrorDetail *string
	Payload     json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeliveryStats are aggregate record counts for operational visibility.
// A nonzero Pending count usually means a crash landed between the record
// insert and its terminal update.
type DeliveryStats struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}
