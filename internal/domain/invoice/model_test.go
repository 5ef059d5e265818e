package invoice

import (
	"testing"
	"time"

	"github.com/flexprice/invoicedesk/internal/domain/recurring"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInvoice() *Invoice {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &Invoice{
		ID:            "INV-1001",
		ClientRef:     "Acme",
		Amount:        decimal.RequireFromString("12450.00"),
		Currency:      "USD",
		IssueDate:     now,
		DueDate:       lo.ToPtr(now.Add(14 * 24 * time.Hour)),
		InvoiceStatus: types.InvoiceStatusDraft,
		Metadata:      types.Metadata{"po": "77"},
		BaseModel: types.BaseModel{
			TenantID:  "tenant_1",
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func TestInvoiceValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(inv *Invoice)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(inv *Invoice) {},
		},
		{
			name:   "zero amount",
			mutate: func(inv *Invoice) { inv.Amount = decimal.Zero },
		},
		{
			name:    "missing client ref",
			mutate:  func(inv *Invoice) { inv.ClientRef = "" },
			wantErr: true,
		},
		{
			name:    "negative amount",
			mutate:  func(inv *Invoice) { inv.Amount = decimal.NewFromInt(-5) },
			wantErr: true,
		},
		{
			name:    "bad currency",
			mutate:  func(inv *Invoice) { inv.Currency = "DOLLARS" },
			wantErr: true,
		},
		{
			name:    "unknown status",
			mutate:  func(inv *Invoice) { inv.InvoiceStatus = "VOID" },
			wantErr: true,
		},
		{
			name:    "due before issue",
			mutate:  func(inv *Invoice) { inv.DueDate = lo.ToPtr(inv.IssueDate.Add(-time.Hour)) },
			wantErr: true,
		},
		{
			name: "invalid recurring",
			mutate: func(inv *Invoice) {
				inv.Recurring = &recurring.Config{
					Frequency: types.RecurringFrequencyMonthly,
					Flags:     []types.RecurringFlag{types.RecurringFlagAutoCharge, types.RecurringFlagPause},
				}
			},
			wantErr: true,
		},
		{
			name: "mismatched payment details",
			mutate: func(inv *Invoice) {
				inv.PaymentDetails = &PaymentDetails{
					Country: types.PaymentCountryUS,
					GB:      &GBBankDetails{AccountNumber: "12345678", SortCode: "123456"},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(inv)
			err := inv.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInvoiceNormalize(t *testing.T) {
	inv := &Invoice{ClientRef: "  Acme ", Currency: " usd", TemplateID: lo.ToPtr(" ")}
	inv.Normalize()

	assert.Equal(t, "Acme", inv.ClientRef)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, types.InvoiceStatusDraft, inv.InvoiceStatus)
	assert.Nil(t, inv.TemplateID)
}

func TestInvoiceCopyIsIndependent(t *testing.T) {
	inv := validInvoice()
	inv.TemplateID = lo.ToPtr("tpl_free_classic")
	inv.Recurring = &recurring.Config{Frequency: types.RecurringFrequencyWeekly}

	cp := inv.Copy()
	require.Equal(t, inv, cp)

	cp.Metadata["po"] = "changed"
	*cp.DueDate = cp.DueDate.Add(time.Hour)
	*cp.TemplateID = "tpl_other"
	cp.Recurring.Frequency = types.RecurringFrequencyDaily

	assert.Equal(t, "77", inv.Metadata["po"])
	assert.Equal(t, "tpl_free_classic", *inv.TemplateID)
	assert.Equal(t, types.RecurringFrequencyWeekly, inv.Recurring.Frequency)
	assert.NotEqual(t, *inv.DueDate, *cp.DueDate)
}

func TestTrashAndRestore(t *testing.T) {
	inv := validInvoice()
	inv.InvoiceStatus = types.InvoiceStatusOverdue
	deletedAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	trashed := inv.Trash(deletedAt, "user_1")
	assert.Equal(t, inv.ID, trashed.ID)
	assert.Equal(t, deletedAt, trashed.DeletedAt)
	assert.Equal(t, "user_1", trashed.DeletedBy)
	assert.Equal(t, types.InvoiceStatusOverdue, trashed.InvoiceStatus)

	restoredAt := deletedAt.Add(time.Hour)
	restored := trashed.Restore(restoredAt, "user_2")
	assert.Equal(t, types.InvoiceStatusDraft, restored.InvoiceStatus)
	assert.Equal(t, restoredAt, restored.UpdatedAt)
	assert.Equal(t, "user_2", restored.UpdatedBy)
	assert.Equal(t, inv.CreatedAt, restored.CreatedAt)
	assert.True(t, inv.Amount.Equal(restored.Amount))

	// the trashed copy is untouched by the restore
	assert.Equal(t, types.InvoiceStatusOverdue, trashed.InvoiceStatus)
}

func TestPaymentDetailsValidate(t *testing.T) {
	tests := []struct {
		name    string
		details *PaymentDetails
		wantErr bool
	}{
		{name: "nil", details: nil},
		{
			name: "us",
			details: &PaymentDetails{
				Country: types.PaymentCountryUS,
				US:      &USBankDetails{AccountNumber: "000123456789", RoutingNumber: "021000021"},
			},
		},
		{
			name: "us bad routing number",
			details: &PaymentDetails{
				Country: types.PaymentCountryUS,
				US:      &USBankDetails{AccountNumber: "000123456789", RoutingNumber: "0210"},
			},
			wantErr: true,
		},
		{
			name: "gb with separators",
			details: &PaymentDetails{
				Country: "gb",
				GB:      &GBBankDetails{AccountNumber: "1234 5678", SortCode: "12-34-56"},
			},
		},
		{
			name: "in",
			details: &PaymentDetails{
				Country: types.PaymentCountryIN,
				IN:      &INBankDetails{AccountNumber: "1234567890", IFSC: "hdfc0001234"},
			},
		},
		{
			name: "in bad ifsc",
			details: &PaymentDetails{
				Country: types.PaymentCountryIN,
				IN:      &INBankDetails{AccountNumber: "1234567890", IFSC: "HDFC1001234"},
			},
			wantErr: true,
		},
		{
			name: "eu",
			details: &PaymentDetails{
				Country: types.PaymentCountryEU,
				EU:      &EUBankDetails{IBAN: "DE89 3704 0044 0532 0130 00", BIC: "COBADEFFXXX"},
			},
		},
		{
			name: "eu bad bic",
			details: &PaymentDetails{
				Country: types.PaymentCountryEU,
				EU:      &EUBankDetails{IBAN: "DE89370400440532013000", BIC: "CO1"},
			},
			wantErr: true,
		},
		{
			name: "other",
			details: &PaymentDetails{
				Country: types.PaymentCountryOther,
				Other:   &OtherPaymentDetails{Fields: map[string]string{"pix_key": "acme@example.com"}},
			},
		},
		{
			name: "other without fields",
			details: &PaymentDetails{
				Country: types.PaymentCountryOther,
				Other:   &OtherPaymentDetails{},
			},
			wantErr: true,
		},
		{
			name: "two variants",
			details: &PaymentDetails{
				Country: types.PaymentCountryUS,
				US:      &USBankDetails{AccountNumber: "000123456789", RoutingNumber: "021000021"},
				EU:      &EUBankDetails{IBAN: "DE89370400440532013000"},
			},
			wantErr: true,
		},
		{
			name:    "unknown country",
			details: &PaymentDetails{Country: "XX"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.details.Normalize()
			err := tt.details.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPaymentDetailsCopy(t *testing.T) {
	p := &PaymentDetails{
		Country: types.PaymentCountryOther,
		Other:   &OtherPaymentDetails{Fields: map[string]string{"swift": "ABC"}},
	}
	cp := p.Copy()
	cp.Other.Fields["swift"] = "XYZ"
	assert.Equal(t, "ABC", p.Other.Fields["swift"])
}
