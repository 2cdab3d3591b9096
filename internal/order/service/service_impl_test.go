package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/learnstack/enrollhook/internal/order/domain"
	orderrepo "github.com/learnstack/enrollhook/internal/order/repository"
	orderservice "github.com/learnstack/enrollhook/internal/order/service"
	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// Serialize access so concurrent transactions do not trip over
	// sqlite's shared-cache locking.
	sqlDB.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			integration TEXT NOT NULL,
			order_id TEXT NOT NULL,
			status TEXT NOT NULL,
			action TEXT NOT NULL,
			raw_payload TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_orders_integration_order_id ON orders(integration, order_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newService(t *testing.T, db *gorm.DB) orderdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(10)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return orderservice.NewService(orderservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  orderrepo.Provide(),
	})
}

func TestRecordFirstSeenDispatchesOnce(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, setupTestDB(t))

	res, err := svc.Record(ctx, orderdomain.RecordRequest{
		Integration: "shopify",
		OrderID:     "1234",
		Action:      webhookdomain.ActionEnroll,
		RawPayload:  []byte(`{"id":1234}`),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !res.WasCreated {
		t.Fatal("expected order to be created")
	}
	if !res.Dispatch {
		t.Fatal("expected first delivery to dispatch")
	}
	if res.Order.Status != orderdomain.StatusProcessed {
		t.Fatalf("expected processed status, got %s", res.Order.Status)
	}
}

func TestRecordSecondDeliveryUpdatesWithoutDispatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	if _, err := svc.Record(ctx, orderdomain.RecordRequest{
		Integration: "shopify",
		OrderID:     "1234",
		Action:      webhookdomain.ActionEnroll,
		RawPayload:  []byte(`{"id":1234,"financial_status":"paid"}`),
	}); err != nil {
		t.Fatalf("first record: %v", err)
	}

	res, err := svc.Record(ctx, orderdomain.RecordRequest{
		Integration: "shopify",
		OrderID:     "1234",
		Action:      webhookdomain.ActionUnenroll,
		RawPayload:  []byte(`{"id":1234,"financial_status":"refunded"}`),
	})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if res.WasCreated {
		t.Fatal("expected existing order")
	}
	if res.Dispatch {
		t.Fatal("expected no dispatch for processed order")
	}
	if res.Order.Action != webhookdomain.ActionUnenroll {
		t.Fatalf("expected action updated to unenroll, got %s", res.Order.Action)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM orders`).Scan(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 order row, got %d", count)
	}
}

func TestRecordHoldKeepsOrderDispatchable(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, setupTestDB(t))

	res, err := svc.Record(ctx, orderdomain.RecordRequest{
		Integration:  "shopify",
		OrderID:      "77",
		Action:       webhookdomain.ActionEnroll,
		RawPayload:   []byte(`{"id":77,"financial_status":"pending"}`),
		HoldDispatch: true,
	})
	if err != nil {
		t.Fatalf("held record: %v", err)
	}
	if res.Dispatch {
		t.Fatal("held delivery must not dispatch")
	}
	if res.Order.Status != orderdomain.StatusNew {
		t.Fatalf("held order should stay new, got %s", res.Order.Status)
	}

	res, err = svc.Record(ctx, orderdomain.RecordRequest{
		Integration: "shopify",
		OrderID:     "77",
		Action:      webhookdomain.ActionEnroll,
		RawPayload:  []byte(`{"id":77,"financial_status":"paid"}`),
	})
	if err != nil {
		t.Fatalf("followup record: %v", err)
	}
	if !res.Dispatch {
		t.Fatal("expected the first non-held delivery to dispatch")
	}
}

func TestRecordConcurrentDuplicatesDispatchOnce(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	const n = 8
	var wg sync.WaitGroup
	results := make([]orderdomain.RecordResult, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Record(ctx, orderdomain.RecordRequest{
				Integration: "woocommerce",
				OrderID:     "555",
				Action:      webhookdomain.ActionEnroll,
				RawPayload:  []byte(`{"id":555}`),
			})
		}(i)
	}
	wg.Wait()

	dispatched := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("record %d: %v", i, errs[i])
		}
		if results[i].Dispatch {
			dispatched++
		}
	}
	if dispatched != 1 {
		t.Fatalf("expected exactly 1 dispatch, got %d", dispatched)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM orders`).Scan(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 order row, got %d", count)
	}
}

func TestRecordRejectsEmptyIdentifiers(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, setupTestDB(t))

	_, err := svc.Record(ctx, orderdomain.RecordRequest{
		Integration: "shopify",
		OrderID:     "",
		Action:      webhookdomain.ActionEnroll,
	})
	if err != orderdomain.ErrInvalidOrder {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}
