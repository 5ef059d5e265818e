package types

// Status is the storage status of a record. Lifecycle state of invoices is
// tracked separately by InvoiceStatus and by which store holds the record.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)
