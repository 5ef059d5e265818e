package dto

import (
	"github.com/flexprice/invoicedesk/internal/domain/recurring"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/flexprice/invoicedesk/internal/validator"
)

// RecurringConfigRequest configures an invoice as a recurring series.
// The series itself is executed by an external scheduler.
type RecurringConfigRequest struct {
	Frequency    types.RecurringFrequency `json:"frequency" validate:"required"`
	Flags        []types.RecurringFlag    `json:"flags,omitempty"`
	IntervalDays int                      `json:"interval_days,omitempty" validate:"omitempty,min=1,max=3650"`
}

func (r *RecurringConfigRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.ToConfig().Validate()
}

// ToConfig returns the normalized recurring configuration
func (r *RecurringConfigRequest) ToConfig() *recurring.Config {
	cfg := &recurring.Config{
		Frequency:    r.Frequency,
		Flags:        append([]types.RecurringFlag(nil), r.Flags...),
		IntervalDays: r.IntervalDays,
	}
	cfg.Normalize()
	return cfg
}
