package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnstack/enrollhook/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.ledger"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Record applies one resolved delivery to the ledger. The upsert and
// the new -> processed dispatch claim run in a single transaction, so
// concurrent deliveries for the same order can never both win the
// claim, and a first delivery can never lose its row to a duplicate.
func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.RecordResult, error) {
	req.Integration = strings.ToLower(strings.TrimSpace(req.Integration))
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.Integration == "" || req.OrderID == "" || req.Action == "" {
		return domain.RecordResult{}, domain.ErrInvalidOrder
	}

	now := time.Now().UTC()
	candidate := domain.Order{
		ID:          s.genID.Generate(),
		Integration: req.Integration,
		OrderID:     req.OrderID,
		Status:      domain.StatusNew,
		Action:      req.Action,
		RawPayload:  datatypes.JSON(req.RawPayload),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var result domain.RecordResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.Insert(ctx, tx, &candidate)
		if err != nil {
			return err
		}

		stored := &candidate
		if !inserted {
			stored, err = s.repo.Find(ctx, tx, req.Integration, req.OrderID)
			if err != nil {
				return err
			}
			if stored == nil {
				return domain.ErrNotFound
			}
			if err := s.repo.Update(ctx, tx, stored.ID, req.Action, req.RawPayload, now); err != nil {
				return err
			}
			stored.Action = req.Action
			stored.RawPayload = datatypes.JSON(req.RawPayload)
			stored.UpdatedAt = now
		}

		result = domain.RecordResult{Order: *stored, WasCreated: inserted}

		if req.HoldDispatch {
			return nil
		}
		if !domain.CanTransition(stored.Status, domain.StatusProcessed) {
			return nil
		}

		claimed, err := s.repo.ClaimDispatch(ctx, tx, stored.ID, now)
		if err != nil {
			return err
		}
		if claimed {
			result.Order.Status = domain.StatusProcessed
			result.Dispatch = true
		}
		return nil
	})
	if err != nil {
		return domain.RecordResult{}, err
	}

	if result.WasCreated {
		s.log.Info("created order",
			zap.String("integration", req.Integration),
			zap.String("order_id", req.OrderID),
			zap.String("action", string(req.Action)),
		)
	} else {
		s.log.Info("retrieved order",
			zap.String("integration", req.Integration),
			zap.String("order_id", req.OrderID),
			zap.String("action", string(req.Action)),
		)
	}

	return result, nil
}
