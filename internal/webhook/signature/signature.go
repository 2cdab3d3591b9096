// Package signature verifies storefront webhook HMAC digests.
//
// Shopify and WooCommerce both sign the raw request body with
// HMAC-SHA256 keyed by the shared webhook secret and send the digest
// base64-encoded in a header. Verification recomputes the digest over
// the unmodified body and compares in constant time.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Valid reports whether provided is the base64 HMAC-SHA256 digest of
// body under secret. Malformed input is indistinguishable from a
// failed check; Valid never panics.
func Valid(secret string, body []byte, provided string) bool {
	if provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
