package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Invoice statuses as stored. "overdue" is derived at read time and never
// written to this column.
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
)

// Invoice bills one enrollment under one class assignment.
type Invoice struct {
	ID           string `json:"id" gorm:"primaryKey"`
	ClassFeeID   string `json:"class_fee_id" gorm:"not null;index:idx_invoices_class_fee_enrollment,unique,priority:1"`
	EnrollmentID string `json:"enrollment_id" gorm:"not null;index:idx_invoices_class_fee_enrollment,unique,priority:2"`

	// AmountDue is computed from the fee and discount at issuance and is
	// authoritative from then on; it is never silently recomputed.
	AmountDue       decimal.Decimal `json:"amount_due" gorm:"type:numeric(12,2);not null"`
	DiscountPercent int             `json:"discount_percent" gorm:"not null;default:0"`

	// DueDate is seeded from the class assignment and mutable on its own;
	// later assignment edits do not track back into issued invoices.
	DueDate time.Time `json:"due_date" gorm:"type:date;not null"`

	PaymentID *string  `json:"payment_id" gorm:"index"`
	Payment   *Payment `json:"payment,omitempty" gorm:"foreignKey:PaymentID;references:ID"`
	Status    string   `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (invoice *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	invoice.ID = uuid.NewString()
	return
}

// Payment methods accepted at the front desk.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCard     = "card"
	PaymentMethodOther    = "other"
)

// Payment is a settlement event; never mutated after creation.
type Payment struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	Method      string          `json:"payment_method" gorm:"type:VARCHAR(20);not null"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	PaidAt      time.Time       `json:"payment_time" gorm:"not null"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	payment.ID = uuid.NewString()
	return
}

// InvoiceAdjustment stores the before-image of an administrative invoice
// correction (amount / due date / status override).
type InvoiceAdjustment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	InvoiceID string         `json:"invoice_id" gorm:"not null;index"`
	Reason    string         `json:"reason"`
	Snapshot  datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	UserID    string         `json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
}
