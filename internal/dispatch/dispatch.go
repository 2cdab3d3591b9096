// Package dispatch schedules enrollment work into the asynchronous
// processor boundary. The core guarantees at most one Schedule call
// per qualifying order transition; retry and failure semantics past
// the queue belong to the consumer.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
)

// Task is one unit of enrollment work handed to the async processor.
type Task struct {
	Integration string               `json:"integration"`
	OrderID     string               `json:"order_id"`
	Action      webhookdomain.Action `json:"action"`
	Notify      bool                 `json:"notify"`
	Payload     json.RawMessage      `json:"payload"`
	EnqueuedAt  time.Time            `json:"enqueued_at"`
}

// Dispatcher is the fire-and-forget scheduling boundary.
type Dispatcher interface {
	Schedule(ctx context.Context, task Task) error
}
