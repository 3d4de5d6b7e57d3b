package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Class struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;unique"`
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"created_at"`
}

func (class *Class) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	class.ID = uuid.NewString()
	return
}

type Student struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	FirstName string     `json:"first_name" gorm:"not null"`
	LastName  string     `json:"last_name" gorm:"not null"`
	BirthDate *time.Time `json:"birth_date,omitempty" gorm:"type:date"`
	CreatedAt time.Time  `json:"created_at"`
}

func (student *Student) BeforeCreate(tx *gorm.DB) (err error) {
	student.ID = uuid.NewString()
	return
}

// Enrollment is a (student, class) membership. DiscountPercent applies to
// every fee billed through the class unless an invoice overrides the amount.
type Enrollment struct {
	ID              string `json:"id" gorm:"primaryKey"`
	StudentID       string `json:"student_id" gorm:"not null;index"`
	ClassID         string `json:"class_id" gorm:"not null;index"`
	DiscountPercent int    `json:"discount_percent" gorm:"not null;default:0"`
	Active          bool   `json:"active" gorm:"index"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID"`
	Class   *Class   `json:"class,omitempty" gorm:"foreignKey:ClassID;references:ID"`

	CreatedAt time.Time `json:"created_at"`
}

func (enrollment *Enrollment) BeforeCreate(tx *gorm.DB) (err error) {
	enrollment.ID = uuid.NewString()
	return
}
