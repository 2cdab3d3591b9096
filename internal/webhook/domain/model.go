package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventType names the storefront webhook topic being delivered.
type EventType string

const (
	EventOrderCreate EventType = "order.create"
	EventOrderUpdate EventType = "order.update"
	EventOrderDelete EventType = "order.delete"
)

// Action is the canonical enrollment effect derived from a payload.
type Action string

const (
	ActionEnroll   Action = "enroll"
	ActionUnenroll Action = "unenroll"
)

// Delivery outcome recorded on the audit row. Pending rows are updated
// exactly once, to either failed or processed.
const (
	DeliveryPending   = "pending"
	DeliveryFailed    = "failed"
	DeliveryProcessed = "processed"
)

// WebhookEvent is the audit record of one inbound delivery attempt.
type WebhookEvent struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	Integration string         `json:"integration" gorm:"type:text;not null;index"`
	Source      string         `json:"source" gorm:"type:text"`
	Headers     datatypes.JSON `json:"headers" gorm:"type:jsonb;not null"`
	Body        []byte         `json:"-" gorm:"type:bytes"`
	Content     datatypes.JSON `json:"content" gorm:"type:jsonb"`
	Status      string         `json:"status" gorm:"type:text;not null"`
	ReceivedAt  time.Time      `json:"received_at" gorm:"not null"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

// Envelope is the verified, structured representation of one inbound
// delivery. Body stays byte-identical to the wire payload; Content is
// the parsed form used by action resolution.
type Envelope struct {
	ID          snowflake.ID
	Integration string
	Source      string
	Headers     map[string]string
	Body        []byte
	Content     map[string]any
	ReceivedAt  time.Time
}
