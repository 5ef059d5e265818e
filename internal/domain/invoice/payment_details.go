package invoice

import (
	"regexp"
	"strings"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
)

var (
	usRoutingRegex   = regexp.MustCompile(`^[0-9]{9}$`)
	gbSortCodeRegex  = regexp.MustCompile(`^[0-9]{6}$`)
	inIFSCRegex      = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	ibanRegex        = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	bicRegex         = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	accountNumberReg = regexp.MustCompile(`^[0-9]{4,34}$`)
)

const maxCustomPaymentFields = 20

// PaymentDetails tells the payer where to send money. Exactly one of the
// country specific variants is set, matching Country.
type PaymentDetails struct {
	Country       types.PaymentCountry `json:"country"`
	AccountHolder string               `json:"account_holder,omitempty"`

	US    *USBankDetails       `json:"us,omitempty"`
	GB    *GBBankDetails       `json:"gb,omitempty"`
	IN    *INBankDetails       `json:"in,omitempty"`
	EU    *EUBankDetails       `json:"eu,omitempty"`
	Other *OtherPaymentDetails `json:"other,omitempty"`
}

type USBankDetails struct {
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
}

type GBBankDetails struct {
	AccountNumber string `json:"account_number"`
	SortCode      string `json:"sort_code"`
}

type INBankDetails struct {
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

type EUBankDetails struct {
	IBAN string `json:"iban"`
	BIC  string `json:"bic,omitempty"`
}

type OtherPaymentDetails struct {
	Fields map[string]string `json:"fields"`
}

// Normalize strips the separators people commonly type into bank identifiers
func (p *PaymentDetails) Normalize() {
	if p == nil {
		return
	}
	p.Country = types.PaymentCountry(strings.ToUpper(strings.TrimSpace(string(p.Country))))
	clean := func(s string) string {
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, "-", "")
		return strings.ToUpper(s)
	}
	if p.US != nil {
		p.US.AccountNumber = clean(p.US.AccountNumber)
		p.US.RoutingNumber = clean(p.US.RoutingNumber)
	}
	if p.GB != nil {
		p.GB.AccountNumber = clean(p.GB.AccountNumber)
		p.GB.SortCode = clean(p.GB.SortCode)
	}
	if p.IN != nil {
		p.IN.AccountNumber = clean(p.IN.AccountNumber)
		p.IN.IFSC = clean(p.IN.IFSC)
	}
	if p.EU != nil {
		p.EU.IBAN = clean(p.EU.IBAN)
		p.EU.BIC = clean(p.EU.BIC)
	}
}

func (p *PaymentDetails) Validate() error {
	if p == nil {
		return nil
	}
	if err := p.Country.Validate(); err != nil {
		return err
	}

	variants := map[types.PaymentCountry]bool{
		types.PaymentCountryUS:    p.US != nil,
		types.PaymentCountryGB:    p.GB != nil,
		types.PaymentCountryIN:    p.IN != nil,
		types.PaymentCountryEU:    p.EU != nil,
		types.PaymentCountryOther: p.Other != nil,
	}
	set := lo.Keys(lo.PickBy(variants, func(_ types.PaymentCountry, ok bool) bool { return ok }))
	if len(set) != 1 || set[0] != p.Country {
		return ierr.NewError("payment details do not match country").
			WithHintf("Please provide only the %s payment fields", p.Country).
			WithReportableDetails(map[string]any{
				"country": p.Country,
				"present": set,
			}).
			Mark(ierr.ErrValidation)
	}

	switch p.Country {
	case types.PaymentCountryUS:
		if !accountNumberReg.MatchString(p.US.AccountNumber) {
			return invalidPaymentField("us.account_number")
		}
		if !usRoutingRegex.MatchString(p.US.RoutingNumber) {
			return invalidPaymentField("us.routing_number")
		}
	case types.PaymentCountryGB:
		if !accountNumberReg.MatchString(p.GB.AccountNumber) {
			return invalidPaymentField("gb.account_number")
		}
		if !gbSortCodeRegex.MatchString(p.GB.SortCode) {
			return invalidPaymentField("gb.sort_code")
		}
	case types.PaymentCountryIN:
		if !accountNumberReg.MatchString(p.IN.AccountNumber) {
			return invalidPaymentField("in.account_number")
		}
		if !inIFSCRegex.MatchString(p.IN.IFSC) {
			return invalidPaymentField("in.ifsc")
		}
	case types.PaymentCountryEU:
		if !ibanRegex.MatchString(p.EU.IBAN) {
			return invalidPaymentField("eu.iban")
		}
		if p.EU.BIC != "" && !bicRegex.MatchString(p.EU.BIC) {
			return invalidPaymentField("eu.bic")
		}
	case types.PaymentCountryOther:
		if len(p.Other.Fields) == 0 || len(p.Other.Fields) > maxCustomPaymentFields {
			return ierr.NewError("invalid custom payment fields").
				WithHintf("Please provide between 1 and %d custom payment fields", maxCustomPaymentFields).
				Mark(ierr.ErrValidation)
		}
		for k := range p.Other.Fields {
			if strings.TrimSpace(k) == "" {
				return invalidPaymentField("other.fields")
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the payment details
func (p *PaymentDetails) Copy() *PaymentDetails {
	if p == nil {
		return nil
	}
	out := *p
	if p.US != nil {
		us := *p.US
		out.US = &us
	}
	if p.GB != nil {
		gb := *p.GB
		out.GB = &gb
	}
	if p.IN != nil {
		in := *p.IN
		out.IN = &in
	}
	if p.EU != nil {
		eu := *p.EU
		out.EU = &eu
	}
	if p.Other != nil {
		out.Other = &OtherPaymentDetails{Fields: types.Metadata(p.Other.Fields).Clone()}
	}
	return &out
}

func invalidPaymentField(field string) error {
	return ierr.NewError("invalid payment field").
		WithHintf("Payment field %s is invalid", field).
		WithReportableDetails(map[string]any{
			"field": field,
		}).
		Mark(ierr.ErrValidation)
}
