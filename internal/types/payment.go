package types

import (
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/samber/lo"
)

// PaymentCountry selects which set of bank fields a payment details payload carries
type PaymentCountry string

const (
	PaymentCountryUS PaymentCountry = "US"
	PaymentCountryGB PaymentCountry = "GB"
	PaymentCountryIN PaymentCountry = "IN"
	PaymentCountryEU PaymentCountry = "EU"
	// PaymentCountryOther carries free-form custom fields
	PaymentCountryOther PaymentCountry = "OTHER"
)

var PaymentCountries = []PaymentCountry{
	PaymentCountryUS,
	PaymentCountryGB,
	PaymentCountryIN,
	PaymentCountryEU,
	PaymentCountryOther,
}

func (c PaymentCountry) String() string {
	return string(c)
}

func (c PaymentCountry) Validate() error {
	if !lo.Contains(PaymentCountries, c) {
		return ierr.NewError("invalid payment country").
			WithHint("Please provide a supported payment country").
			WithReportableDetails(map[string]any{
				"allowed": PaymentCountries,
				"country": c,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
