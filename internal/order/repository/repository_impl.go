package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnstack/enrollhook/internal/order/domain"
	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"github.com/learnstack/enrollhook/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert creates the row unless one already exists for the same
// (integration, order_id). The conflict clause renders per dialect, so
// the same call works on postgres, sqlite and mysql.
func (r *repo) Insert(ctx context.Context, tx *gorm.DB, order *domain.Order) (bool, error) {
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "integration"}, {Name: "order_id"}},
		DoNothing: true,
	}).Create(order)
	if res.Error != nil {
		if db.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Find(ctx context.Context, tx *gorm.DB, integration, orderID string) (*domain.Order, error) {
	var item domain.Order
	err := tx.WithContext(ctx).Raw(
		`SELECT id, integration, order_id, status, action, raw_payload, created_at, updated_at
		 FROM orders
		 WHERE integration = ? AND order_id = ?
		 LIMIT 1`,
		integration,
		orderID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, action webhookdomain.Action, payload []byte, at time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE orders
		 SET action = ?, raw_payload = ?, updated_at = ?
		 WHERE id = ?`,
		action,
		payload,
		at,
		id,
	).Error
}

// ClaimDispatch performs the one allowed status transition. The status
// guard in the WHERE clause makes the claim race-free: of N concurrent
// writers inside their own transactions, exactly one sees RowsAffected == 1.
func (r *repo) ClaimDispatch(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusProcessed,
		at,
		id,
		domain.StatusNew,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
