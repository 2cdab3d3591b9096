package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/learnstack/enrollhook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "integrations.yml")
	content := `integrations:
  - name: shopify
    secret: hello
    source: example.myshopify.com
  - name: eu-store
    profile: woocommerce
    secret: wc-secret
    source: https://eu.example.com
    require_payment: true
    send_email: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := NewRegistry(config.Config{IntegrationsFile: path})
	require.NoError(t, err)

	in, ok := r.Get("shopify")
	require.True(t, ok)
	assert.Equal(t, "hello", in.Secret)
	assert.Equal(t, "X-Shopify-Shop-Domain", in.SourceHeader)
	assert.Equal(t, "X-Shopify-Hmac-Sha256", in.SignatureHeader)
	assert.Equal(t, []string{"pending", "refunded", "voided"}, in.Rules.UnenrollStatuses)
	assert.Equal(t, "GIFTCARD", in.Rules.UnenrollTag)
	assert.True(t, in.Rules.PendingHold)
	assert.True(t, in.SendEmail)
	assert.False(t, in.AcceptProbe)

	eu, ok := r.Get("eu-store")
	require.True(t, ok)
	assert.Equal(t, "X-Wc-Webhook-Source", eu.SourceHeader)
	assert.True(t, eu.Rules.RequirePayment)
	assert.Equal(t, "date_paid_gmt", eu.Rules.PaymentField)
	assert.False(t, eu.SendEmail)
	assert.True(t, eu.AcceptProbe)
	assert.False(t, eu.Rules.HasTags())

	_, ok = r.Get("bigcommerce")
	assert.False(t, ok)
}

func TestNewRegistryRejectsIncompleteIntegration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "integrations.yml")
	content := `integrations:
  - name: shopify
    source: example.myshopify.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewRegistry(config.Config{IntegrationsFile: path})
	assert.Error(t, err)
}

func TestNewRegistryFromEnv(t *testing.T) {
	t.Setenv("SHOPIFY_SECRET", "hello")
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "example.myshopify.com")
	t.Setenv("WOOCOMMERCE_SECRET", "wc-secret")
	t.Setenv("WOOCOMMERCE_SOURCE", "https://shop.example.com")
	t.Setenv("WOOCOMMERCE_REQUIRE_PAYMENT", "true")

	r, err := NewRegistry(config.Config{})
	require.NoError(t, err)

	in, ok := r.Get("shopify")
	require.True(t, ok)
	assert.Equal(t, "example.myshopify.com", in.Source)

	wc, ok := r.Get("woocommerce")
	require.True(t, ok)
	assert.True(t, wc.Rules.RequirePayment)
}

func TestStaticRegistry(t *testing.T) {
	in := ShopifyProfile()
	in.Name = "Shopify"
	in.Secret = "s"
	in.Source = "x"

	r := NewStaticRegistry(in)
	got, ok := r.Get(" shopify ")
	assert.True(t, ok)
	assert.Equal(t, "s", got.Secret)
	assert.Len(t, r.Names(), 1)
}
