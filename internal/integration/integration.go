// Package integration holds the per-storefront configuration: shared
// secret, identifying headers, and the action resolution rule set.
// One Integration value exists per configured external source.
package integration

import (
	"errors"
	"strings"

	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
)

// Integration is one configured storefront source.
type Integration struct {
	Name            string
	Secret          string
	SourceHeader    string
	SignatureHeader string
	Source          string
	SendEmail       bool
	AcceptProbe     bool
	Rules           webhookdomain.RuleSet
}

const (
	ProfileShopify     = "shopify"
	ProfileWooCommerce = "woocommerce"
)

// ShopifyProfile returns the defaults for a Shopify-style integration.
func ShopifyProfile() Integration {
	return Integration{
		SourceHeader:    "X-Shopify-Shop-Domain",
		SignatureHeader: "X-Shopify-Hmac-Sha256",
		SendEmail:       true,
		Rules: webhookdomain.RuleSet{
			UnenrollStatuses: []string{"pending", "refunded", "voided"},
			UnenrollTag:      "GIFTCARD",
			EnrollTag:        "AUTHORIZED",
			PendingHold:      true,
			PendingStatus:    "pending",
		},
	}
}

// WooCommerceProfile returns the defaults for a WooCommerce-style
// integration: no tag handling, payment-date gating, and the
// registration probe accepted.
func WooCommerceProfile() Integration {
	return Integration{
		SourceHeader:    "X-Wc-Webhook-Source",
		SignatureHeader: "X-Wc-Webhook-Signature",
		SendEmail:       true,
		AcceptProbe:     true,
		Rules: webhookdomain.RuleSet{
			PaymentField: "date_paid_gmt",
		},
	}
}

func profileDefaults(profile string) (Integration, error) {
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case ProfileShopify:
		return ShopifyProfile(), nil
	case ProfileWooCommerce:
		return WooCommerceProfile(), nil
	default:
		return Integration{}, errors.New("unknown integration profile: " + profile)
	}
}

func validate(in Integration) error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("integration name is required")
	}
	if strings.TrimSpace(in.Secret) == "" {
		return errors.New("integration secret is required")
	}
	if strings.TrimSpace(in.Source) == "" {
		return errors.New("integration source is required")
	}
	if strings.TrimSpace(in.SourceHeader) == "" || strings.TrimSpace(in.SignatureHeader) == "" {
		return errors.New("integration headers are required")
	}
	return nil
}
