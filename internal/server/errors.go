package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware maps domain errors to terminal status codes.
// Redelivery is the sender's responsibility, and the pipeline is
// idempotent per order, so a 5xx is always safe to redeliver.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, webhookdomain.ErrUnknownIntegration):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "unknown integration"}
	case errors.Is(err, webhookdomain.ErrInvalidPayload),
		errors.Is(err, webhookdomain.ErrMissingSourceHeader),
		errors.Is(err, webhookdomain.ErrMissingSignatureHeader),
		errors.Is(err, webhookdomain.ErrMissingOrderID),
		errors.Is(err, webhookdomain.ErrInvalidProbe):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	case errors.Is(err, webhookdomain.ErrPaymentRequired):
		return http.StatusPaymentRequired, errorPayload{Type: "payment_required", Message: err.Error()}
	case errors.Is(err, webhookdomain.ErrUnknownSource),
		errors.Is(err, webhookdomain.ErrInvalidSignature):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

// errorReason labels rejections for metrics.
func errorReason(err error) string {
	switch {
	case errors.Is(err, webhookdomain.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, webhookdomain.ErrMissingSourceHeader):
		return "missing_source_header"
	case errors.Is(err, webhookdomain.ErrUnknownSource):
		return "unknown_source"
	case errors.Is(err, webhookdomain.ErrMissingSignatureHeader):
		return "missing_signature_header"
	case errors.Is(err, webhookdomain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, webhookdomain.ErrPaymentRequired):
		return "payment_required"
	case errors.Is(err, webhookdomain.ErrMissingOrderID):
		return "missing_order_id"
	default:
		return "error"
	}
}
