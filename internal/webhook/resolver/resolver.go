// Package resolver derives the required enrollment action from an
// order payload, applying the integration's precedence rules over
// financial status and explicit order tags.
package resolver

import (
	"strings"
	"time"

	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"go.uber.org/zap"
)

// Resolution is the outcome of resolving one delivery.
type Resolution struct {
	Action webhookdomain.Action

	// Hold records the order without claiming the dispatch, used while
	// a created order's financial status is still pending.
	Hold bool
}

type Resolver struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Resolver {
	return &Resolver{log: log.Named("webhook.resolver")}
}

// Resolve maps (event type, payload) to an action under the given rule
// set. It is a pure function of its inputs apart from soft-validation
// logging.
func (r *Resolver) Resolve(event webhookdomain.EventType, content map[string]any, rules webhookdomain.RuleSet) (Resolution, error) {
	if event == webhookdomain.EventOrderDelete {
		return Resolution{Action: webhookdomain.ActionUnenroll}, nil
	}

	if rules.RequirePayment {
		if err := r.checkPayment(content, rules.PaymentField); err != nil {
			return Resolution{}, err
		}
	}

	switch event {
	case webhookdomain.EventOrderCreate:
		return r.resolveCreate(content, rules), nil
	case webhookdomain.EventOrderUpdate:
		return r.resolveUpdate(content, rules)
	default:
		return Resolution{}, webhookdomain.ErrInvalidPayload
	}
}

func (r *Resolver) resolveCreate(content map[string]any, rules webhookdomain.RuleSet) Resolution {
	res := Resolution{Action: webhookdomain.ActionEnroll}

	if rules.UnenrollTag != "" && hasTag(content, rules.UnenrollTag) {
		res.Action = webhookdomain.ActionUnenroll
	}
	if rules.PendingHold && financialStatus(content) == rules.PendingStatus {
		res.Hold = true
	}

	return res
}

func (r *Resolver) resolveUpdate(content map[string]any, rules webhookdomain.RuleSet) (Resolution, error) {
	if rules.HasTags() && hasTag(content, rules.UnenrollTag) && hasTag(content, rules.EnrollTag) {
		r.log.Error("conflicting order tags",
			zap.String("unenroll_tag", rules.UnenrollTag),
			zap.String("enroll_tag", rules.EnrollTag),
		)
		return Resolution{}, webhookdomain.ErrTagConflict
	}

	action := webhookdomain.ActionEnroll
	status := financialStatus(content)
	for _, s := range rules.UnenrollStatuses {
		if status == s {
			action = webhookdomain.ActionUnenroll
			break
		}
	}

	if rules.UnenrollTag != "" && hasTag(content, rules.UnenrollTag) {
		action = webhookdomain.ActionUnenroll
	}
	if rules.EnrollTag != "" && hasTag(content, rules.EnrollTag) {
		action = webhookdomain.ActionEnroll
	}

	return Resolution{Action: action}, nil
}

func (r *Resolver) checkPayment(content map[string]any, field string) error {
	raw, ok := content[field]
	if !ok || raw == nil {
		return webhookdomain.ErrPaymentRequired
	}
	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return webhookdomain.ErrPaymentRequired
	}

	// Soft validation only: an unparsable date is logged but does not
	// block processing.
	if !parseableDate(value) {
		r.log.Warn("unparsable payment date",
			zap.String("field", field),
			zap.String("value", value),
		)
	}
	return nil
}

func parseableDate(value string) bool {
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339, "2006-01-02 15:04:05"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func financialStatus(content map[string]any) string {
	status, _ := content["financial_status"].(string)
	return status
}

// hasTag reports whether the payload's tag field contains tag. Shopify
// sends tags either as a comma-separated string or as a list.
func hasTag(content map[string]any, tag string) bool {
	if tag == "" {
		return false
	}
	switch tags := content["tags"].(type) {
	case string:
		for _, t := range strings.Split(tags, ",") {
			if strings.TrimSpace(t) == tag {
				return true
			}
		}
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok && strings.TrimSpace(s) == tag {
				return true
			}
		}
	case []string:
		for _, t := range tags {
			if strings.TrimSpace(t) == tag {
				return true
			}
		}
	}
	return false
}
