package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"gorm.io/gorm"
)

// RecordRequest is one resolved webhook delivery to be applied to the ledger.
type RecordRequest struct {
	Integration string
	OrderID     string
	Action      webhookdomain.Action
	RawPayload  []byte

	// HoldDispatch keeps the order in StatusNew without claiming the
	// dispatch, for deliveries whose payment state withholds processing.
	HoldDispatch bool
}

// RecordResult reports what the ledger did with a delivery.
type RecordResult struct {
	Order      Order
	WasCreated bool

	// Dispatch is true when this delivery won the one-shot
	// new -> processed claim and must be scheduled downstream.
	Dispatch bool
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (RecordResult, error)
}

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, order *Order) (bool, error)
	Find(ctx context.Context, tx *gorm.DB, integration, orderID string) (*Order, error)
	Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, action webhookdomain.Action, payload []byte, at time.Time) error
	ClaimDispatch(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}

var (
	ErrInvalidOrder = errors.New("invalid_order")
	ErrNotFound     = errors.New("order_not_found")
)
