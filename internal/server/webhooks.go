package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/enrollhook/internal/dispatch"
	"github.com/learnstack/enrollhook/internal/integration"
	orderdomain "github.com/learnstack/enrollhook/internal/order/domain"
	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"github.com/learnstack/enrollhook/internal/webhook/envelope"
	"go.uber.org/zap"
)

func (s *Server) HandleOrderCreate(c *gin.Context) {
	s.handleOrderEvent(c, webhookdomain.EventOrderCreate)
}

func (s *Server) HandleOrderUpdate(c *gin.Context) {
	s.handleOrderEvent(c, webhookdomain.EventOrderUpdate)
}

func (s *Server) HandleOrderDelete(c *gin.Context) {
	s.handleOrderEvent(c, webhookdomain.EventOrderDelete)
}

func (s *Server) handleOrderEvent(c *gin.Context, event webhookdomain.EventType) {
	in, ok := s.registry.Get(c.Param("integration"))
	if !ok {
		AbortWithError(c, webhookdomain.ErrUnknownIntegration)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, webhookdomain.ErrInvalidPayload)
		return
	}

	// Only probe-accepting integrations branch on content type; other
	// senders get their body parsed as JSON regardless of the header.
	contentType := c.ContentType()
	if in.AcceptProbe && !envelope.IsJSON(contentType) {
		s.handleNonJSON(c, in, contentType, body)
		return
	}

	env, err := s.envelopeSvc.Extract(c.Request.Context(), in, c.Request.Header, body)
	if err != nil {
		s.metrics.RecordRejection(in.Name, errorReason(err))
		s.metrics.RecordReceived(in.Name, "rejected")
		AbortWithError(c, err)
		return
	}

	res, err := s.resolver.Resolve(event, env.Content, in.Rules)
	if err != nil {
		if errors.Is(err, webhookdomain.ErrTagConflict) {
			// Accepted but not processed: the conflict is the sender's
			// data problem, redelivery of the same payload cannot fix it.
			s.metrics.RecordReceived(in.Name, "ignored")
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		s.metrics.RecordRejection(in.Name, errorReason(err))
		s.metrics.RecordReceived(in.Name, "rejected")
		AbortWithError(c, err)
		return
	}

	orderID, ok := orderIDFromContent(env.Content)
	if !ok {
		s.metrics.RecordRejection(in.Name, errorReason(webhookdomain.ErrMissingOrderID))
		s.metrics.RecordReceived(in.Name, "rejected")
		AbortWithError(c, webhookdomain.ErrMissingOrderID)
		return
	}

	rec, err := s.orderSvc.Record(c.Request.Context(), orderdomain.RecordRequest{
		Integration:  in.Name,
		OrderID:      orderID,
		Action:       res.Action,
		RawPayload:   env.Body,
		HoldDispatch: res.Hold,
	})
	if err != nil {
		s.metrics.RecordReceived(in.Name, "error")
		AbortWithError(c, err)
		return
	}

	if !rec.Dispatch {
		s.log.Info("order already processed or held, nothing to do",
			zap.String("integration", in.Name),
			zap.String("order_id", orderID),
		)
		s.metrics.RecordReceived(in.Name, "ok")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	task := dispatch.Task{
		Integration: in.Name,
		OrderID:     orderID,
		Action:      res.Action,
		Notify:      in.SendEmail,
		Payload:     env.Body,
	}
	if err := s.dispatcher.Schedule(c.Request.Context(), task); err != nil {
		s.metrics.RecordReceived(in.Name, "error")
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordReceived(in.Name, "ok")
	s.metrics.RecordDispatched(in.Name, string(res.Action))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleNonJSON answers the WooCommerce registration probe and rejects
// every other non-JSON body. Callers only reach it for probe-accepting
// integrations.
func (s *Server) handleNonJSON(c *gin.Context, in integration.Integration, contentType string, body []byte) {
	if envelope.IsForm(contentType) {
		if id, ok := envelope.ProbeID(body); ok {
			s.log.Info("webhook created or enabled",
				zap.String("integration", in.Name),
				zap.String("webhook_id", id),
				zap.String("remote_addr", c.ClientIP()),
				zap.String("user_agent", c.Request.UserAgent()),
			)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		s.log.Warn("form request without a webhook_id parameter",
			zap.String("integration", in.Name),
			zap.String("remote_addr", c.ClientIP()),
		)
		AbortWithError(c, webhookdomain.ErrInvalidProbe)
		return
	}

	s.log.Warn("unexpected content type",
		zap.String("integration", in.Name),
		zap.String("content_type", contentType),
		zap.String("remote_addr", c.ClientIP()),
	)
	AbortWithError(c, webhookdomain.ErrInvalidPayload)
}

// orderIDFromContent reads the external order identifier, which
// platforms send either as a number or a string.
func orderIDFromContent(content map[string]any) (string, bool) {
	switch v := content["id"].(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatInt(int64(v), 10), true
	default:
		return "", false
	}
}
