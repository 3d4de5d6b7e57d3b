package billing

import (
	"errors"
	"fmt"
	"time"

	"kitaverwaltung-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatusOverdue only exists at read time; invoices store pending/paid.
const StatusOverdue = "overdue"

var hundred = decimal.NewFromInt(100)

// ComputeAmountDue applies an enrollment discount to a fee's base amount:
// round2(base * (1 - d/100)). Out-of-range discounts clamp to 0 and 100.
func ComputeAmountDue(base decimal.Decimal, discountPercent int) decimal.Decimal {
	if discountPercent <= 0 {
		return base.Round(2)
	}
	if discountPercent >= 100 {
		return decimal.Zero
	}
	remainder := decimal.NewFromInt(int64(100 - discountPercent))
	return base.Mul(remainder).Div(hundred).Round(2)
}

// DeriveStatus classifies an invoice for presentation. A stored "paid" is
// final here; only an administrative correction can change it.
func DeriveStatus(inv models.Invoice, payment *models.Payment, now time.Time) string {
	if inv.Status == models.InvoiceStatusPaid {
		return models.InvoiceStatusPaid
	}
	if inv.PaymentID != nil && payment != nil && payment.TotalAmount.GreaterThanOrEqual(inv.AmountDue) {
		return models.InvoiceStatusPaid
	}
	if now.After(inv.DueDate) {
		return StatusOverdue
	}
	return models.InvoiceStatusPending
}

// EnsureInvoice returns the invoice for (classFee, enrollment), creating it
// lazily on first use. An existing invoice is returned as stored — its amount
// may have been adjusted by an administrator and is never recomputed here.
func EnsureInvoice(db *gorm.DB, classFee models.ClassFee, enrollment models.Enrollment) (models.Invoice, error) {
	var inv models.Invoice
	err := db.Where("class_fee_id = ? AND enrollment_id = ?", classFee.ID, enrollment.ID).First(&inv).Error
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return inv, fmt.Errorf("load invoice: %w", err)
	}

	var fee models.Fee
	if err := db.First(&fee, "id = ?", classFee.FeeID).Error; err != nil {
		return inv, fmt.Errorf("load fee %s: %w", classFee.FeeID, err)
	}

	inv = models.Invoice{
		ClassFeeID:      classFee.ID,
		EnrollmentID:    enrollment.ID,
		AmountDue:       ComputeAmountDue(fee.BaseAmount, enrollment.DiscountPercent),
		DiscountPercent: enrollment.DiscountPercent,
		DueDate:         classFee.DueDate,
		Status:          models.InvoiceStatusPending,
	}
	if err := db.Create(&inv).Error; err != nil {
		return inv, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}
