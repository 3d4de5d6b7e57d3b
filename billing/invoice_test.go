package billing

import (
	"testing"
	"time"

	"kitaverwaltung-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAmountDue(t *testing.T) {
	cases := []struct {
		name     string
		base     string
		discount int
		want     string
	}{
		{"no discount", "500000", 0, "500000"},
		{"ten percent", "1000000", 10, "900000"},
		{"rounding", "99.99", 33, "66.99"},
		{"full discount", "500000", 100, "0"},
		{"clamped below", "500000", -5, "500000"},
		{"clamped above", "500000", 150, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeAmountDue(decimal.RequireFromString(tc.base), tc.discount)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	nextWeek := now.AddDate(0, 0, 7)
	amount := decimal.RequireFromString("100")
	paymentID := "p1"

	pending := models.Invoice{AmountDue: amount, DueDate: nextWeek, Status: models.InvoiceStatusPending}
	assert.Equal(t, models.InvoiceStatusPending, DeriveStatus(pending, nil, now))

	overdue := models.Invoice{AmountDue: amount, DueDate: yesterday, Status: models.InvoiceStatusPending}
	assert.Equal(t, StatusOverdue, DeriveStatus(overdue, nil, now))

	// A stored paid is final even past the due date.
	paidStored := models.Invoice{AmountDue: amount, DueDate: yesterday, Status: models.InvoiceStatusPaid}
	assert.Equal(t, models.InvoiceStatusPaid, DeriveStatus(paidStored, nil, now))

	// Linked payment covering the full amount.
	full := &models.Payment{ID: paymentID, TotalAmount: amount}
	linked := models.Invoice{AmountDue: amount, DueDate: nextWeek, Status: models.InvoiceStatusPending, PaymentID: &paymentID}
	assert.Equal(t, models.InvoiceStatusPaid, DeriveStatus(linked, full, now))

	// Partial payment does not confirm; past due it shows overdue.
	partial := &models.Payment{ID: paymentID, TotalAmount: decimal.RequireFromString("40")}
	assert.Equal(t, models.InvoiceStatusPending, DeriveStatus(linked, partial, now))
	linkedLate := linked
	linkedLate.DueDate = yesterday
	assert.Equal(t, StatusOverdue, DeriveStatus(linkedLate, partial, now))
}

func TestEnsureInvoiceLazyCreateAndStableAmount(t *testing.T) {
	db := newTestDB(t)
	fee := createFee(t, db, "100")

	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: "C1", DueDate: date(2025, time.March, 31)},
	})
	require.NoError(t, err)
	cf := res.Added[0]

	enr := models.Enrollment{StudentID: "S1", ClassID: "C1", DiscountPercent: 25, Active: true}
	require.NoError(t, db.Create(&enr).Error)

	inv, err := EnsureInvoice(db, cf, enr)
	require.NoError(t, err)
	assert.True(t, inv.AmountDue.Equal(decimal.RequireFromString("75")))
	assert.Equal(t, 25, inv.DiscountPercent)
	assert.True(t, inv.DueDate.Equal(cf.DueDate))

	// An adjusted amount is authoritative; EnsureInvoice never recomputes it.
	require.NoError(t, db.Model(&inv).Update("amount_due", decimal.RequireFromString("50")).Error)
	again, err := EnsureInvoice(db, cf, enr)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)
	assert.True(t, again.AmountDue.Equal(decimal.RequireFromString("50")))
}
