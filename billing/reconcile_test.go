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

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createFee(t *testing.T, db *gorm.DB, amount string) models.Fee {
	t.Helper()
	fee := models.Fee{
		Name:        "Lunch",
		Description: "Monthly meal fee",
		BaseAmount:  decimal.RequireFromString(amount),
	}
	require.NoError(t, db.Create(&fee).Error)
	return fee
}

func TestDefaultDueDate(t *testing.T) {
	assert.Equal(t, date(2025, time.April, 30), DefaultDueDate(date(2025, time.March, 15)))
	assert.Equal(t, date(2025, time.February, 28), DefaultDueDate(date(2025, time.January, 31)))
	assert.Equal(t, date(2026, time.January, 31), DefaultDueDate(date(2025, time.December, 2)))
}

func TestReconcileAssignments(t *testing.T) {
	db := newTestDB(t)
	fee := createFee(t, db, "500000")
	due := date(2025, time.March, 31)

	desired := []AssignmentInput{
		{ClassID: "C1", DueDate: due},
		{ClassID: "C2", DueDate: due},
	}

	res, err := ReconcileAssignments(db, fee.ID, desired)
	require.NoError(t, err)
	assert.Len(t, res.Added, 2)
	assert.Empty(t, res.Updated)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Errors)

	// Idempotence: the same desired set applies nothing further.
	res, err = ReconcileAssignments(db, fee.ID, desired)
	require.NoError(t, err)
	assert.Zero(t, res.Changed())

	// Move C1's due date and drop C2.
	res, err = ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: "C1", DueDate: date(2025, time.April, 5)},
	})
	require.NoError(t, err)
	assert.Len(t, res.Updated, 1)
	assert.Len(t, res.Removed, 1)
	assert.Empty(t, res.Added)

	var c1 models.ClassFee
	require.NoError(t, db.First(&c1, "fee_id = ? AND class_id = ?", fee.ID, "C1").Error)
	assert.True(t, c1.Active)
	assert.True(t, c1.DueDate.Equal(date(2025, time.April, 5)))

	// C2 is soft-removed, not deleted.
	var c2 models.ClassFee
	require.NoError(t, db.First(&c2, "fee_id = ? AND class_id = ?", fee.ID, "C2").Error)
	assert.False(t, c2.Active)
}

func TestReconcileCollapsesDuplicateClasses(t *testing.T) {
	db := newTestDB(t)
	fee := createFee(t, db, "100")

	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: "C1", DueDate: date(2025, time.March, 31)},
		{ClassID: "C1", DueDate: date(2025, time.June, 30)},
	})
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	assert.Equal(t, date(2025, time.March, 31), res.Added[0].DueDate)
}

func TestReconcileMissingClassIDCollected(t *testing.T) {
	db := newTestDB(t)
	fee := createFee(t, db, "100")

	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: ""},
		{ClassID: "C1", DueDate: date(2025, time.March, 31)},
	})
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "add", res.Errors[0].Op)
}

func TestReconcileDefaultsDueDate(t *testing.T) {
	db := newTestDB(t)
	fee := createFee(t, db, "100")

	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{{ClassID: "C1"}})
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	assert.Equal(t, DefaultDueDate(time.Now()), res.Added[0].DueDate)
}

func TestRemovalPreservesIssuedInvoices(t *testing.T) {
	db := newTestDB(t)
	fee := createFee(t, db, "1000")

	res, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: "C1", DueDate: date(2025, time.March, 31)},
	})
	require.NoError(t, err)
	cf := res.Added[0]

	enr := models.Enrollment{StudentID: "S1", ClassID: "C1", DiscountPercent: 10, Active: true}
	require.NoError(t, db.Create(&enr).Error)

	inv, err := EnsureInvoice(db, cf, enr)
	require.NoError(t, err)

	// Detach the class.
	res, err = ReconcileAssignments(db, fee.ID, nil)
	require.NoError(t, err)
	require.Len(t, res.Removed, 1)

	var after models.Invoice
	require.NoError(t, db.First(&after, "id = ?", inv.ID).Error)
	assert.True(t, after.AmountDue.Equal(decimal.RequireFromString("900")))
	assert.True(t, after.DueDate.Equal(inv.DueDate))
	assert.Equal(t, models.InvoiceStatusPending, after.Status)
}

func TestCountAndDeactivateAssignments(t *testing.T) {
	db := newTestDB(t)
	fee := createFee(t, db, "100")

	_, err := ReconcileAssignments(db, fee.ID, []AssignmentInput{
		{ClassID: "C1", DueDate: date(2025, time.March, 31)},
		{ClassID: "C2", DueDate: date(2025, time.March, 31)},
	})
	require.NoError(t, err)

	n, err := CountActiveAssignments(db, fee.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, DeactivateAssignments(db, fee.ID))
	n, err = CountActiveAssignments(db, fee.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
