package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fee is a billable catalog item (lunch, materials, trips, ...).
type Fee struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description" gorm:"not null"`
	BaseAmount  decimal.Decimal `json:"base_amount" gorm:"type:numeric(12,2);not null"`

	// Active assignments only when preloaded with the active filter.
	ClassFees []ClassFee `json:"classes,omitempty" gorm:"foreignKey:FeeID;references:ID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (fee *Fee) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	fee.ID = uuid.NewString()
	return
}

// ClassFee links a fee to one class with its own due date.
// Detaching a class clears Active instead of deleting the row, so invoices
// issued under the assignment keep a valid reference.
type ClassFee struct {
	ID      string    `json:"id" gorm:"primaryKey"`
	FeeID   string    `json:"fee_id" gorm:"not null;index"`
	ClassID string    `json:"class_id" gorm:"not null;index"`
	DueDate time.Time `json:"due_date" gorm:"type:date;not null"`
	Note    string    `json:"note"`
	Active  bool      `json:"active" gorm:"index"`

	Class *Class `json:"class,omitempty" gorm:"foreignKey:ClassID;references:ID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (cf *ClassFee) BeforeCreate(tx *gorm.DB) (err error) {
	cf.ID = uuid.NewString()
	return
}
