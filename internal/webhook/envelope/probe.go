package envelope

import (
	"mime"
	"net/url"
	"strings"
)

const probeField = "webhook_id"

// IsJSON reports whether the Content-Type header denotes a JSON body.
func IsJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

// IsForm reports whether the Content-Type header denotes a form-encoded
// body, the shape WooCommerce uses for its registration probe.
func IsForm(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}

// ProbeID extracts the webhook subscription identifier from a
// form-encoded registration probe body. WooCommerce sends this single
// field when a webhook is first created or enabled; the probe bypasses
// the rest of the pipeline.
func ProbeID(body []byte) (string, bool) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(values.Get(probeField))
	if id == "" {
		return "", false
	}
	return id, true
}
