package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent represents a lifecycle event handed to downstream consumers
type WebhookEvent struct {
	ID        string    `json:"id"`
	EventName string    `json:"event_name"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	// Sequence orders events of one tenant, 0 when the event carries none
	Sequence uint64          `json:"sequence,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// invoice lifecycle event names
const (
	WebhookEventInvoiceCreated           = "invoice.created"
	WebhookEventInvoiceUpdated           = "invoice.updated"
	WebhookEventInvoiceTrashed           = "invoice.trashed"
	WebhookEventInvoiceRestored          = "invoice.restored"
	WebhookEventInvoicePurged            = "invoice.purged"
	WebhookEventInvoiceRecurringAttached = "invoice.recurring.configured"
	WebhookEventInvoiceRecurringDetached = "invoice.recurring.removed"
	WebhookEventTemplateSelected         = "template.selected"
)

// export request actions, carried in message metadata
const (
	ExportActionRequest = "request"
	ExportActionCancel  = "cancel"
)
