package domain

// RuleSet configures how an integration derives the required action
// from an order payload.
type RuleSet struct {
	// Financial statuses that imply unenrollment on update events.
	UnenrollStatuses []string

	// Explicit tag overrides. Empty values disable tag handling for
	// integrations whose payloads carry no tags.
	UnenrollTag string
	EnrollTag   string

	// RequirePayment gates create/update events on a payment timestamp
	// field being present in the payload.
	RequirePayment bool
	PaymentField   string

	// PendingHold withholds dispatch (but not the ledger write) while
	// the payload's financial status equals PendingStatus.
	PendingHold   bool
	PendingStatus string
}

// HasTags reports whether tag-based overrides are configured.
func (r RuleSet) HasTags() bool {
	return r.UnenrollTag != "" || r.EnrollTag != ""
}
