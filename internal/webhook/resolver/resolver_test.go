package resolver

import (
	"testing"

	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func shopifyRules() webhookdomain.RuleSet {
	return webhookdomain.RuleSet{
		UnenrollStatuses: []string{"pending", "refunded", "voided"},
		UnenrollTag:      "GIFTCARD",
		EnrollTag:        "AUTHORIZED",
		PendingHold:      true,
		PendingStatus:    "pending",
	}
}

func woocommerceRules() webhookdomain.RuleSet {
	return webhookdomain.RuleSet{
		RequirePayment: true,
		PaymentField:   "date_paid_gmt",
	}
}

func TestResolveDeleteAlwaysUnenrolls(t *testing.T) {
	r := New(zap.NewNop())

	payloads := []map[string]any{
		{},
		{"financial_status": "paid"},
		{"tags": "AUTHORIZED", "financial_status": "paid"},
		{"date_paid_gmt": nil},
	}
	for _, content := range payloads {
		res, err := r.Resolve(webhookdomain.EventOrderDelete, content, shopifyRules())
		assert.NoError(t, err)
		assert.Equal(t, webhookdomain.ActionUnenroll, res.Action)
		assert.False(t, res.Hold)
	}

	// The delete path bypasses the payment gate entirely.
	res, err := r.Resolve(webhookdomain.EventOrderDelete, map[string]any{}, woocommerceRules())
	assert.NoError(t, err)
	assert.Equal(t, webhookdomain.ActionUnenroll, res.Action)
}

func TestResolveCreate(t *testing.T) {
	r := New(zap.NewNop())

	res, err := r.Resolve(webhookdomain.EventOrderCreate, map[string]any{
		"financial_status": "paid",
	}, shopifyRules())
	assert.NoError(t, err)
	assert.Equal(t, webhookdomain.ActionEnroll, res.Action)
	assert.False(t, res.Hold)

	res, err = r.Resolve(webhookdomain.EventOrderCreate, map[string]any{
		"financial_status": "paid",
		"tags":             "GIFTCARD",
	}, shopifyRules())
	assert.NoError(t, err)
	assert.Equal(t, webhookdomain.ActionUnenroll, res.Action)
}

func TestResolveCreatePendingHold(t *testing.T) {
	r := New(zap.NewNop())

	res, err := r.Resolve(webhookdomain.EventOrderCreate, map[string]any{
		"financial_status": "pending",
	}, shopifyRules())
	assert.NoError(t, err)
	assert.Equal(t, webhookdomain.ActionEnroll, res.Action)
	assert.True(t, res.Hold)
}

func TestResolveUpdatePrecedence(t *testing.T) {
	r := New(zap.NewNop())

	cases := []struct {
		name    string
		content map[string]any
		want    webhookdomain.Action
	}{
		{"paid no tags", map[string]any{"financial_status": "paid", "tags": ""}, webhookdomain.ActionEnroll},
		{"refunded", map[string]any{"financial_status": "refunded", "tags": ""}, webhookdomain.ActionUnenroll},
		{"voided", map[string]any{"financial_status": "voided"}, webhookdomain.ActionUnenroll},
		{"pending", map[string]any{"financial_status": "pending"}, webhookdomain.ActionUnenroll},
		{"unenroll tag wins over paid", map[string]any{"financial_status": "paid", "tags": "GIFTCARD"}, webhookdomain.ActionUnenroll},
		{"enroll tag wins over refunded", map[string]any{"financial_status": "refunded", "tags": "AUTHORIZED"}, webhookdomain.ActionEnroll},
		{"tags as list", map[string]any{"financial_status": "paid", "tags": []any{"GIFTCARD"}}, webhookdomain.ActionUnenroll},
		{"comma separated tags", map[string]any{"financial_status": "paid", "tags": "gift, GIFTCARD, other"}, webhookdomain.ActionUnenroll},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := r.Resolve(webhookdomain.EventOrderUpdate, tc.content, shopifyRules())
			assert.NoError(t, err)
			assert.Equal(t, tc.want, res.Action)
		})
	}
}

func TestResolveUpdateTagConflict(t *testing.T) {
	r := New(zap.NewNop())

	_, err := r.Resolve(webhookdomain.EventOrderUpdate, map[string]any{
		"financial_status": "paid",
		"tags":             "GIFTCARD, AUTHORIZED",
	}, shopifyRules())
	assert.ErrorIs(t, err, webhookdomain.ErrTagConflict)
}

func TestResolveUpdateWithoutTagRules(t *testing.T) {
	r := New(zap.NewNop())

	rules := webhookdomain.RuleSet{UnenrollStatuses: []string{"refunded"}}

	// Tags in the payload are ignored when the integration configures none.
	res, err := r.Resolve(webhookdomain.EventOrderUpdate, map[string]any{
		"financial_status": "refunded",
		"tags":             "GIFTCARD, AUTHORIZED",
	}, rules)
	assert.NoError(t, err)
	assert.Equal(t, webhookdomain.ActionUnenroll, res.Action)
}

func TestResolvePaymentGate(t *testing.T) {
	r := New(zap.NewNop())

	_, err := r.Resolve(webhookdomain.EventOrderCreate, map[string]any{}, woocommerceRules())
	assert.ErrorIs(t, err, webhookdomain.ErrPaymentRequired)

	_, err = r.Resolve(webhookdomain.EventOrderUpdate, map[string]any{
		"date_paid_gmt": "",
	}, woocommerceRules())
	assert.ErrorIs(t, err, webhookdomain.ErrPaymentRequired)

	res, err := r.Resolve(webhookdomain.EventOrderCreate, map[string]any{
		"date_paid_gmt": "2024-03-01T10:15:00",
	}, woocommerceRules())
	assert.NoError(t, err)
	assert.Equal(t, webhookdomain.ActionEnroll, res.Action)

	// An unparsable date is soft-validated: logged, not blocking.
	res, err = r.Resolve(webhookdomain.EventOrderCreate, map[string]any{
		"date_paid_gmt": "not-a-date",
	}, woocommerceRules())
	assert.NoError(t, err)
	assert.Equal(t, webhookdomain.ActionEnroll, res.Action)
}

func TestResolveIsDeterministic(t *testing.T) {
	r := New(zap.NewNop())
	content := map[string]any{"financial_status": "refunded", "tags": ""}

	first, err1 := r.Resolve(webhookdomain.EventOrderUpdate, content, shopifyRules())
	second, err2 := r.Resolve(webhookdomain.EventOrderUpdate, content, shopifyRules())
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}
