package invoice

import (
	ierr "github.com/flexprice/invoicedesk/internal/errors"
)

func notFound(id, store string) error {
	return ierr.NewError("invoice not found").
		WithHintf("Invoice %s was not found in %s", id, store).
		WithReportableDetails(map[string]any{
			"invoice_id": id,
			"store":      store,
		}).
		Mark(ierr.ErrNotFound)
}

// NewActiveNotFoundError is returned when id is not among the tenant's active invoices
func NewActiveNotFoundError(id string) error {
	return notFound(id, "active invoices")
}

// NewTrashNotFoundError is returned when id is not in the tenant's trash
func NewTrashNotFoundError(id string) error {
	return notFound(id, "trash")
}

// NewIDInUseError is returned when an identifier is already reserved by an active or trashed invoice
func NewIDInUseError(id string) error {
	return ierr.NewError("invoice id already in use").
		WithHintf("Invoice id %s is already in use", id).
		WithReportableDetails(map[string]any{
			"invoice_id": id,
		}).
		Mark(ierr.ErrConflict)
}
