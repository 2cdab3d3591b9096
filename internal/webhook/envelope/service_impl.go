// Package envelope turns raw webhook deliveries into verified
// envelopes, recording an audit row for every attributable attempt.
package envelope

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnstack/enrollhook/internal/integration"
	webhookdomain "github.com/learnstack/enrollhook/internal/webhook/domain"
	"github.com/learnstack/enrollhook/internal/webhook/signature"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("webhook.envelope"),
		genID: p.GenID,
	}
}

// Extract parses and authenticates one delivery for the given
// integration. Every parsable delivery gets an audit row whose status
// is settled exactly once: failed on any rejected check, processed once
// all checks pass. Unparsable bodies are rejected without an audit row
// since they are not yet attributable to a known source.
func (s *Service) Extract(ctx context.Context, in integration.Integration, headers http.Header, body []byte) (*webhookdomain.Envelope, error) {
	// Numbers decode as json.Number so order identifiers beyond float64
	// precision round-trip losslessly.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var content map[string]any
	if err := dec.Decode(&content); err != nil {
		return nil, webhookdomain.ErrInvalidPayload
	}

	record := &webhookdomain.WebhookEvent{
		ID:          s.genID.Generate(),
		Integration: in.Name,
		Source:      headers.Get(in.SourceHeader),
		Headers:     marshalHeaders(headers),
		Body:        body,
		Content:     datatypes.JSON(body),
		Status:      webhookdomain.DeliveryPending,
		ReceivedAt:  time.Now().UTC(),
	}
	if err := s.insert(ctx, record); err != nil {
		return nil, err
	}

	source := headers.Get(in.SourceHeader)
	if source == "" {
		s.log.Error("request is missing source header",
			zap.String("integration", in.Name),
			zap.String("header", in.SourceHeader),
		)
		s.settle(ctx, record.ID, webhookdomain.DeliveryFailed)
		return nil, webhookdomain.ErrMissingSourceHeader
	}

	if source != in.Source {
		s.log.Error("unknown source",
			zap.String("integration", in.Name),
			zap.String("source", source),
		)
		s.settle(ctx, record.ID, webhookdomain.DeliveryFailed)
		return nil, webhookdomain.ErrUnknownSource
	}

	digest := headers.Get(in.SignatureHeader)
	if digest == "" {
		s.log.Error("request is missing signature header",
			zap.String("integration", in.Name),
			zap.String("header", in.SignatureHeader),
		)
		s.settle(ctx, record.ID, webhookdomain.DeliveryFailed)
		return nil, webhookdomain.ErrMissingSignatureHeader
	}

	if !signature.Valid(in.Secret, body, digest) {
		s.log.Error("failed to verify webhook signature",
			zap.String("integration", in.Name),
			zap.String("source", source),
		)
		s.settle(ctx, record.ID, webhookdomain.DeliveryFailed)
		return nil, webhookdomain.ErrInvalidSignature
	}

	if err := s.update(ctx, record.ID, webhookdomain.DeliveryProcessed); err != nil {
		return nil, err
	}

	return &webhookdomain.Envelope{
		ID:          record.ID,
		Integration: in.Name,
		Source:      source,
		Headers:     flattenHeaders(headers),
		Body:        body,
		Content:     content,
		ReceivedAt:  record.ReceivedAt,
	}, nil
}

func (s *Service) insert(ctx context.Context, record *webhookdomain.WebhookEvent) error {
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, integration, source, headers, body, content, status, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Integration,
		record.Source,
		record.Headers,
		record.Body,
		record.Content,
		record.Status,
		record.ReceivedAt,
	).Error
}

func (s *Service) update(ctx context.Context, id snowflake.ID, status string) error {
	return s.db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET status = ? WHERE id = ? AND status = ?`,
		status,
		id,
		webhookdomain.DeliveryPending,
	).Error
}

// settle records a terminal failure outcome. The delivery is already
// being rejected, so a failing audit update is logged rather than
// masking the rejection.
func (s *Service) settle(ctx context.Context, id snowflake.ID, status string) {
	if err := s.update(ctx, id, status); err != nil {
		s.log.Error("failed to update webhook audit status",
			zap.Int64("webhook_event_id", int64(id)),
			zap.Error(err),
		)
	}
}

func marshalHeaders(headers http.Header) datatypes.JSON {
	raw, err := json.Marshal(flattenHeaders(headers))
	if err != nil {
		return datatypes.JSON(`{}`)
	}
	return datatypes.JSON(raw)
}

func flattenHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name := range headers {
		out[name] = headers.Get(name)
	}
	return out
}
