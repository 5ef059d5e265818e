package recurring

import (
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
)

// Config describes how an external scheduler should repeat an invoice.
// It is only validated and stored here, never executed.
type Config struct {
	Frequency types.RecurringFrequency `json:"frequency"`
	Flags     []types.RecurringFlag    `json:"flags,omitempty"`
	// IntervalDays is only meaningful for CUSTOM frequency
	IntervalDays int `json:"interval_days,omitempty"`
}

// Normalize collapses duplicate flags, keeping the first occurrence order
func (c *Config) Normalize() {
	c.Flags = lo.Uniq(c.Flags)
	if c.Frequency != types.RecurringFrequencyCustom {
		c.IntervalDays = 0
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return ierr.NewError("recurring config is required").
			WithHint("Please provide a recurring configuration").
			Mark(ierr.ErrValidation)
	}

	if err := c.Frequency.Validate(); err != nil {
		return err
	}

	for _, f := range c.Flags {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	// a paused series cannot also auto-charge
	if c.HasFlag(types.RecurringFlagAutoCharge) && c.HasFlag(types.RecurringFlagPause) {
		return ierr.NewError("auto charge and pause are mutually exclusive").
			WithHint("A paused recurring invoice cannot also be charged automatically").
			WithReportableDetails(map[string]any{
				"flags": c.Flags,
			}).
			Mark(ierr.ErrValidation)
	}

	if c.Frequency == types.RecurringFrequencyCustom && c.IntervalDays <= 0 {
		return ierr.NewError("custom frequency requires interval_days").
			WithHint("Please provide a positive interval in days for a custom frequency").
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (c *Config) HasFlag(flag types.RecurringFlag) bool {
	return lo.Contains(c.Flags, flag)
}

// Copy returns a deep copy of the config
func (c *Config) Copy() *Config {
	if c == nil {
		return nil
	}
	out := *c
	if c.Flags != nil {
		out.Flags = append([]types.RecurringFlag(nil), c.Flags...)
	}
	return &out
}
