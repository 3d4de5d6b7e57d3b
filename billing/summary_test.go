package billing

import (
	"testing"
	"time"

	"kitaverwaltung-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func enroll(t *testing.T, db *gorm.DB, classID, first, last string, discount int) models.Enrollment {
	t.Helper()
	student := models.Student{FirstName: first, LastName: last}
	require.NoError(t, db.Create(&student).Error)
	enr := models.Enrollment{StudentID: student.ID, ClassID: classID, DiscountPercent: discount, Active: true}
	require.NoError(t, db.Create(&enr).Error)
	return enr
}

func TestSummarizeClassBilling(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	class := models.Class{Name: "Sunflowers"}
	require.NoError(t, db.Create(&class).Error)

	fee := createFee(t, db, "100")
	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: class.ID, DueDate: now.AddDate(0, 0, 7)},
	})
	require.NoError(t, err)
	cf := res.Added[0]

	paidEnr := enroll(t, db, class.ID, "Anna", "Berg", 0)
	pendingEnr := enroll(t, db, class.ID, "Ben", "Kraus", 0)
	overdueEnr := enroll(t, db, class.ID, "Clara", "Vogel", 0)

	// Anna has paid in full.
	inv, err := EnsureInvoice(db, cf, paidEnr)
	require.NoError(t, err)
	payment := models.Payment{Method: models.PaymentMethodCash, TotalAmount: inv.AmountDue, PaidAt: now}
	require.NoError(t, db.Create(&payment).Error)
	require.NoError(t, db.Model(&inv).Updates(map[string]any{
		"payment_id": payment.ID,
		"status":     models.InvoiceStatusPaid,
	}).Error)

	// Clara's invoice was due last week (independent due date).
	overdueInv, err := EnsureInvoice(db, cf, overdueEnr)
	require.NoError(t, err)
	require.NoError(t, db.Model(&overdueInv).Update("due_date", now.AddDate(0, 0, -7)).Error)

	// Ben has no invoice yet; the summary creates it lazily.
	summary, rows, err := SummarizeClassBilling(db, cf, now)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 1, summary.Paid)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Overdue)
	assert.True(t, summary.TotalAmount.Equal(decimal.RequireFromString("300")))
	assert.True(t, summary.TotalPaid.Equal(decimal.RequireFromString("100")))
	assert.True(t, summary.TotalPending.Equal(decimal.RequireFromString("200")))

	require.Len(t, rows, 3)
	byEnrollment := map[string]StudentBillingRow{}
	for _, r := range rows {
		byEnrollment[r.EnrollmentID] = r
	}
	assert.Equal(t, models.InvoiceStatusPaid, byEnrollment[paidEnr.ID].Status)
	assert.Equal(t, models.InvoiceStatusPending, byEnrollment[pendingEnr.ID].Status)
	assert.Equal(t, StatusOverdue, byEnrollment[overdueEnr.ID].Status)
	assert.Equal(t, "Anna Berg", byEnrollment[paidEnr.ID].StudentName)
	require.NotNil(t, byEnrollment[paidEnr.ID].Payment)
	assert.Equal(t, models.PaymentMethodCash, byEnrollment[paidEnr.ID].Payment.Method)

	// Two runs in a row create nothing extra.
	var invoiceCount int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.EqualValues(t, 3, invoiceCount)
	_, _, err = SummarizeClassBilling(db, cf, now)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.EqualValues(t, 3, invoiceCount)
}

func TestSummarizePaymentLookup(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	class := models.Class{Name: "Sunflowers"}
	require.NoError(t, db.Create(&class).Error)
	fee := createFee(t, db, "100")
	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: class.ID, DueDate: now.AddDate(0, 0, 7)},
	})
	require.NoError(t, err)
	cf := res.Added[0]
	enr := enroll(t, db, class.ID, "Anna", "Berg", 0)

	inv, err := EnsureInvoice(db, cf, enr)
	require.NoError(t, err)

	// A payment_id whose row is gone is treated as no payment, not an error.
	require.NoError(t, db.Model(&inv).Update("payment_id", "no-such-payment").Error)
	summary, rows, err := SummarizeClassBilling(db, cf, now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Payment)
	assert.Equal(t, models.InvoiceStatusPending, rows[0].Status)
	assert.Equal(t, 1, summary.Pending)

	// Any other lookup failure propagates instead of silently undercounting.
	require.NoError(t, db.Migrator().DropTable(&models.Payment{}))
	_, _, err = SummarizeClassBilling(db, cf, now)
	require.Error(t, err)
}

func TestSummarizeEmptyClass(t *testing.T) {
	db := newTestDB(t)
	class := models.Class{Name: "Empty"}
	require.NoError(t, db.Create(&class).Error)
	fee := createFee(t, db, "100")
	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{{ClassID: class.ID, DueDate: date(2025, time.March, 31)}})
	require.NoError(t, err)

	summary, rows, err := SummarizeClassBilling(db, res.Added[0], time.Now())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalStudents)
	assert.Empty(t, rows)
	assert.True(t, summary.TotalAmount.IsZero())
	assert.True(t, summary.TotalPending.IsZero())
}
