package billing

import (
	"errors"
	"fmt"
	"time"

	"kitaverwaltung-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClassBillingSummary aggregates one class assignment across its enrollments.
type ClassBillingSummary struct {
	TotalStudents int             `json:"total_students"`
	Paid          int             `json:"paid"`
	Pending       int             `json:"pending"`
	Overdue       int             `json:"overdue"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalPending  decimal.Decimal `json:"total_pending"`
}

// StudentBillingRow is the per-student detail under a class assignment.
type StudentBillingRow struct {
	EnrollmentID    string          `json:"enrollment_id"`
	StudentID       string          `json:"student_id"`
	StudentName     string          `json:"student_name"`
	DiscountPercent int             `json:"discount_percent"`
	InvoiceID       string          `json:"invoice_id"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	DueDate         time.Time       `json:"due_date"`
	Status          string          `json:"status"`
	Payment         *models.Payment `json:"payment,omitempty"`
}

// SummarizeClassBilling walks every active enrollment of the assignment's
// class, fetches or lazily creates its invoice, classifies it, and sums the
// currency columns with two-decimal rounding.
func SummarizeClassBilling(db *gorm.DB, classFee models.ClassFee, now time.Time) (ClassBillingSummary, []StudentBillingRow, error) {
	summary := ClassBillingSummary{
		TotalAmount:  decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
	}

	var enrollments []models.Enrollment
	err := db.Preload("Student").
		Where("class_id = ? AND active = ?", classFee.ClassID, true).
		Order("created_at").
		Find(&enrollments).Error
	if err != nil {
		return summary, nil, fmt.Errorf("load enrollments for class %s: %w", classFee.ClassID, err)
	}

	rows := make([]StudentBillingRow, 0, len(enrollments))
	for _, enr := range enrollments {
		inv, err := EnsureInvoice(db, classFee, enr)
		if err != nil {
			return summary, nil, err
		}

		var payment *models.Payment
		if inv.PaymentID != nil {
			var p models.Payment
			err := db.First(&p, "id = ?", *inv.PaymentID).Error
			switch {
			case err == nil:
				payment = &p
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Dangling reference; classify the invoice as if unpaid.
			default:
				return summary, nil, fmt.Errorf("load payment %s for invoice %s: %w", *inv.PaymentID, inv.ID, err)
			}
		}

		status := DeriveStatus(inv, payment, now)
		summary.TotalStudents++
		summary.TotalAmount = summary.TotalAmount.Add(inv.AmountDue)
		switch status {
		case models.InvoiceStatusPaid:
			summary.Paid++
			summary.TotalPaid = summary.TotalPaid.Add(inv.AmountDue)
		case StatusOverdue:
			summary.Overdue++
		default:
			summary.Pending++
		}

		row := StudentBillingRow{
			EnrollmentID:    enr.ID,
			StudentID:       enr.StudentID,
			DiscountPercent: enr.DiscountPercent,
			InvoiceID:       inv.ID,
			AmountDue:       inv.AmountDue,
			DueDate:         inv.DueDate,
			Status:          status,
			Payment:         payment,
		}
		if enr.Student != nil {
			row.StudentName = enr.Student.FirstName + " " + enr.Student.LastName
		}
		rows = append(rows, row)
	}

	summary.TotalAmount = summary.TotalAmount.Round(2)
	summary.TotalPaid = summary.TotalPaid.Round(2)
	summary.TotalPending = summary.TotalAmount.Sub(summary.TotalPaid)
	if summary.TotalPending.IsNegative() {
		summary.TotalPending = decimal.Zero
	}
	return summary, rows, nil
}
