package domain

import "errors"

var (
	ErrUnknownIntegration     = errors.New("unknown_integration")
	ErrInvalidPayload         = errors.New("invalid_payload")
	ErrMissingSourceHeader    = errors.New("missing_source_header")
	ErrUnknownSource          = errors.New("unknown_source")
	ErrMissingSignatureHeader = errors.New("missing_signature_header")
	ErrInvalidSignature       = errors.New("invalid_signature")
	ErrTagConflict            = errors.New("tag_conflict")
	ErrPaymentRequired        = errors.New("payment_required")
	ErrMissingOrderID         = errors.New("missing_order_id")
	ErrInvalidProbe           = errors.New("invalid_probe")
)
