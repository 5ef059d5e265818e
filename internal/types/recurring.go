package types

import (
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/samber/lo"
)

// RecurringFrequency is how often a recurring invoice series repeats
type RecurringFrequency string

const (
	RecurringFrequencyDaily     RecurringFrequency = "DAILY"
	RecurringFrequencyWeekly    RecurringFrequency = "WEEKLY"
	RecurringFrequencyMonthly   RecurringFrequency = "MONTHLY"
	RecurringFrequencyQuarterly RecurringFrequency = "QUARTERLY"
	RecurringFrequencyYearly    RecurringFrequency = "YEARLY"
	// RecurringFrequencyCustom repeats every IntervalDays days
	RecurringFrequencyCustom RecurringFrequency = "CUSTOM"
)

var RecurringFrequencies = []RecurringFrequency{
	RecurringFrequencyDaily,
	RecurringFrequencyWeekly,
	RecurringFrequencyMonthly,
	RecurringFrequencyQuarterly,
	RecurringFrequencyYearly,
	RecurringFrequencyCustom,
}

func (f RecurringFrequency) String() string {
	return string(f)
}

func (f RecurringFrequency) Validate() error {
	if !lo.Contains(RecurringFrequencies, f) {
		return ierr.NewError("invalid recurring frequency").
			WithHint("Please provide a valid recurring frequency").
			WithReportableDetails(map[string]any{
				"allowed":   RecurringFrequencies,
				"frequency": f,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RecurringFlag toggles a behaviour of the external scheduler for a series
type RecurringFlag string

const (
	RecurringFlagAutoSend   RecurringFlag = "AUTO_SEND"
	RecurringFlagAutoCharge RecurringFlag = "AUTO_CHARGE"
	RecurringFlagPause      RecurringFlag = "PAUSE"
	RecurringFlagSkip       RecurringFlag = "SKIP"
	RecurringFlagModify     RecurringFlag = "MODIFY"
)

var RecurringFlags = []RecurringFlag{
	RecurringFlagAutoSend,
	RecurringFlagAutoCharge,
	RecurringFlagPause,
	RecurringFlagSkip,
	RecurringFlagModify,
}

func (f RecurringFlag) String() string {
	return string(f)
}

func (f RecurringFlag) Validate() error {
	if !lo.Contains(RecurringFlags, f) {
		return ierr.NewError("invalid recurring flag").
			WithHint("Please provide a valid recurring flag").
			WithReportableDetails(map[string]any{
				"allowed": RecurringFlags,
				"flag":    f,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
