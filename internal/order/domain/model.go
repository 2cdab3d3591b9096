package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"gorm.io/datatypes"
)

// Status is the order processing state. The only allowed transition is
// StatusNew -> StatusProcessed; processed orders never revert.
type Status string

const (
	StatusNew       Status = "new"
	StatusProcessed Status = "processed"
)

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to Status) bool {
	return from == StatusNew && to == StatusProcessed
}

// Order is the ledger record for one external order within an
// integration's namespace.
type Order struct {
	ID          snowflake.ID         `json:"id" gorm:"primaryKey"`
	Integration string               `json:"integration" gorm:"type:text;not null;uniqueIndex:ux_orders_integration_order_id"`
	OrderID     string               `json:"order_id" gorm:"type:text;not null;uniqueIndex:ux_orders_integration_order_id"`
	Status      Status               `json:"status" gorm:"type:text;not null"`
	Action      webhookdomain.Action `json:"action" gorm:"type:text;not null"`
	RawPayload  datatypes.JSON       `json:"raw_payload" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time            `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }
