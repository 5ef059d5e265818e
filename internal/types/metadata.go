package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
)

// Metadata holds free-form string attributes of an invoice, stored as JSONB
type Metadata map[string]string

const maxMetadataKeys = 50

// Scan implements the sql.Scanner interface for Metadata
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	result := make(Metadata)
	err := json.Unmarshal(bytes, &result)
	*m = result
	return err
}

// Value implements the driver.Valuer interface for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(Metadata))
	}
	return json.Marshal(m)
}

func (m Metadata) Validate() error {
	if len(m) > maxMetadataKeys {
		return ierr.NewError("too many metadata keys").
			WithHintf("Metadata can hold at most %d keys", maxMetadataKeys).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Clone returns an independent copy of m
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
