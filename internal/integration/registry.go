package integration

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/learnstack/enrollhook/internal/config"
	"github.com/spf13/viper"
)

// Registry resolves integration names to their configuration. The
// backing map is swapped atomically on config reload, so lookups are
// safe from concurrent request handlers.
type Registry struct {
	current atomic.Value // holds map[string]Integration
}

type fileIntegration struct {
	Name             string   `mapstructure:"name"`
	Profile          string   `mapstructure:"profile"`
	Secret           string   `mapstructure:"secret"`
	Source           string   `mapstructure:"source"`
	SourceHeader     string   `mapstructure:"source_header"`
	SignatureHeader  string   `mapstructure:"signature_header"`
	SendEmail        *bool    `mapstructure:"send_email"`
	AcceptProbe      *bool    `mapstructure:"accept_probe"`
	RequirePayment   *bool    `mapstructure:"require_payment"`
	PaymentField     string   `mapstructure:"payment_field"`
	UnenrollStatuses []string `mapstructure:"unenroll_statuses"`
	UnenrollTag      *string  `mapstructure:"unenroll_tag"`
	EnrollTag        *string  `mapstructure:"enroll_tag"`
	PendingHold      *bool    `mapstructure:"pending_hold"`
	PendingStatus    string   `mapstructure:"pending_status"`
}

// NewRegistry builds the registry from the integrations file when one
// is configured, falling back to environment variables otherwise. File
// changes hot-reload the registry; invalid updates are ignored.
func NewRegistry(cfg config.Config) (*Registry, error) {
	r := &Registry{}

	path := strings.TrimSpace(cfg.IntegrationsFile)
	if path == "" {
		r.current.Store(fromEnv())
		return r, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		v.SetConfigType(ext)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	integrations, err := unmarshalIntegrations(v)
	if err != nil {
		return nil, err
	}
	r.current.Store(integrations)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalIntegrations(v)
		if err != nil {
			log.Printf("[integrations] invalid config ignored: %v", err)
			return
		}
		r.current.Store(updated)
		log.Printf("[integrations] reloaded from %s", e.Name)
	})

	return r, nil
}

// NewStaticRegistry builds a registry from fixed integrations, for
// tests and embedded setups.
func NewStaticRegistry(ins ...Integration) *Registry {
	m := make(map[string]Integration, len(ins))
	for _, in := range ins {
		m[strings.ToLower(strings.TrimSpace(in.Name))] = in
	}
	r := &Registry{}
	r.current.Store(m)
	return r
}

// Get returns the integration configuration for name.
func (r *Registry) Get(name string) (Integration, bool) {
	m, _ := r.current.Load().(map[string]Integration)
	in, ok := m[strings.ToLower(strings.TrimSpace(name))]
	return in, ok
}

// Names lists the configured integration names.
func (r *Registry) Names() []string {
	m, _ := r.current.Load().(map[string]Integration)
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	return out
}

func unmarshalIntegrations(v *viper.Viper) (map[string]Integration, error) {
	var entries []fileIntegration
	if err := v.UnmarshalKey("integrations", &entries); err != nil {
		return nil, err
	}

	out := make(map[string]Integration, len(entries))
	for _, entry := range entries {
		profile := entry.Profile
		if profile == "" {
			profile = entry.Name
		}
		in, err := profileDefaults(profile)
		if err != nil {
			return nil, err
		}

		in.Name = strings.ToLower(strings.TrimSpace(entry.Name))
		in.Secret = entry.Secret
		in.Source = entry.Source
		if entry.SourceHeader != "" {
			in.SourceHeader = entry.SourceHeader
		}
		if entry.SignatureHeader != "" {
			in.SignatureHeader = entry.SignatureHeader
		}
		if entry.SendEmail != nil {
			in.SendEmail = *entry.SendEmail
		}
		if entry.AcceptProbe != nil {
			in.AcceptProbe = *entry.AcceptProbe
		}
		if entry.RequirePayment != nil {
			in.Rules.RequirePayment = *entry.RequirePayment
		}
		if entry.PaymentField != "" {
			in.Rules.PaymentField = entry.PaymentField
		}
		if entry.UnenrollStatuses != nil {
			in.Rules.UnenrollStatuses = entry.UnenrollStatuses
		}
		if entry.UnenrollTag != nil {
			in.Rules.UnenrollTag = *entry.UnenrollTag
		}
		if entry.EnrollTag != nil {
			in.Rules.EnrollTag = *entry.EnrollTag
		}
		if entry.PendingHold != nil {
			in.Rules.PendingHold = *entry.PendingHold
		}
		if entry.PendingStatus != "" {
			in.Rules.PendingStatus = entry.PendingStatus
		}

		if err := validate(in); err != nil {
			return nil, err
		}
		out[in.Name] = in
	}
	return out, nil
}

// fromEnv builds the built-in shopify and woocommerce integrations from
// environment variables, for deployments without an integrations file.
func fromEnv() map[string]Integration {
	out := make(map[string]Integration)

	if secret := os.Getenv("SHOPIFY_SECRET"); secret != "" {
		in := ShopifyProfile()
		in.Name = ProfileShopify
		in.Secret = secret
		in.Source = os.Getenv("SHOPIFY_SHOP_DOMAIN")
		if err := validate(in); err == nil {
			out[in.Name] = in
		} else {
			log.Printf("[integrations] shopify env config ignored: %v", err)
		}
	}

	if secret := os.Getenv("WOOCOMMERCE_SECRET"); secret != "" {
		in := WooCommerceProfile()
		in.Name = ProfileWooCommerce
		in.Secret = secret
		in.Source = os.Getenv("WOOCOMMERCE_SOURCE")
		in.Rules.RequirePayment = os.Getenv("WOOCOMMERCE_REQUIRE_PAYMENT") == "true"
		if err := validate(in); err == nil {
			out[in.Name] = in
		} else {
			log.Printf("[integrations] woocommerce env config ignored: %v", err)
		}
	}

	return out
}
