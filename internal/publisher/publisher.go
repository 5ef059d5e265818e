package publisher

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/invoicedesk/internal/config"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/pubsub"
	kafkaPubSub "github.com/flexprice/invoicedesk/internal/pubsub/kafka"
	memoryPubSub "github.com/flexprice/invoicedesk/internal/pubsub/memory"
	"github.com/flexprice/invoicedesk/internal/sentry"
	"github.com/flexprice/invoicedesk/internal/types"
)

// Metadata keys set on every published message
const (
	MetadataTenantID  = "tenant_id"
	MetadataEventName = "event_name"
	MetadataAction    = "action"
	MetadataExportID  = "export_id"
	MetadataSequence  = "sequence"
)

// EventPublisher emits invoice lifecycle events for downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, eventName string, payload interface{}) error
}

type eventPublisher struct {
	pubSub pubsub.Publisher
	topic  string
	logger *logger.Logger
	sentry *sentry.Service
}

// NewPubSub selects the transport configured in pubsub.backend
func NewPubSub(cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	if cfg.PubSub.Backend == types.PubSubTypeKafka {
		return kafkaPubSub.NewPubSub(cfg, logger)
	}
	return memoryPubSub.NewPubSub(cfg, logger), nil
}

func NewEventPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
	sentry *sentry.Service,
) EventPublisher {
	return &eventPublisher{
		pubSub: pubSub,
		topic:  cfg.PubSub.EventsTopic,
		logger: logger,
		sentry: sentry,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, eventName string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to encode %s event", eventName).
			Mark(ierr.ErrSystem)
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Sequence:  types.GetEventSequence(ctx),
		Payload:   json.RawMessage(data),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode event").
			Mark(ierr.ErrSystem)
	}

	msg := NewMessage(event.ID, body)
	msg.Metadata.Set(MetadataTenantID, event.TenantID)
	msg.Metadata.Set(MetadataEventName, eventName)
	if event.Sequence > 0 {
		msg.Metadata.Set(MetadataSequence, strconv.FormatUint(event.Sequence, 10))
	}

	span, ctx := p.sentry.StartPublishSpan(ctx, p.topic)
	if span != nil {
		defer span.Finish()
	}

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to publish event",
			"error", err,
			"event_id", event.ID,
			"event_name", eventName,
			"tenant_id", event.TenantID,
		)
		p.sentry.CaptureException(ctx, err)
		return ierr.WithError(err).
			WithHint("Failed to publish event").
			Mark(ierr.ErrSystem)
	}

	p.logger.Debugw("published event",
		"event_id", event.ID,
		"event_name", eventName,
		"tenant_id", event.TenantID,
		"topic", p.topic,
	)
	return nil
}

// NewMessage builds a watermill message, generating an id when none is given
func NewMessage(id string, payload []byte) *message.Message {
	if id == "" {
		id = watermill.NewUUID()
	}
	return message.NewMessage(id, payload)
}
