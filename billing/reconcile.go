// Package billing holds the computation core of tuition billing: the
// fee-to-class assignment reconciler, per-enrollment invoice math, status
// derivation, and the class billing summary. Everything here takes a *gorm.DB
// so it runs the same against the live database and test fixtures.
package billing

import (
	"fmt"
	"time"

	"kitaverwaltung-backend/models"

	"gorm.io/gorm"
)

// AssignmentInput is one desired (class, due date) pair for a fee.
type AssignmentInput struct {
	ClassID string
	DueDate time.Time
	Note    string
}

// ItemError reports one failed add/update/remove during reconciliation.
// Failures are collected per item, never raised as a single fatal error.
type ItemError struct {
	ClassID string `json:"class_id"`
	Op      string `json:"op"` // "add" | "update" | "remove"
	Message string `json:"message"`
}

type ReconcileResult struct {
	Added   []models.ClassFee `json:"added"`
	Updated []models.ClassFee `json:"updated"`
	Removed []models.ClassFee `json:"removed"`
	Errors  []ItemError       `json:"errors,omitempty"`
}

// Changed returns the number of applied mutations.
func (r ReconcileResult) Changed() int {
	return len(r.Added) + len(r.Updated) + len(r.Removed)
}

// DefaultDueDate is the last day of the calendar month following now.
func DefaultDueDate(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 2, -1)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ReconcileAssignments diffs the desired class list of a fee against its
// current active assignments and applies adds, due-date updates, and soft
// removals. Each staged operation is attempted independently; errors are
// collected into the result. Removal only clears the Active flag — invoices
// already issued under a removed assignment keep their own due date and
// amount.
//
// There is no transaction or lock around the read-diff-apply sequence; two
// concurrent reconciliations of the same fee can overwrite each other. That
// is acceptable for a low-contention admin tool.
func ReconcileAssignments(db *gorm.DB, feeID string, desired []AssignmentInput) (ReconcileResult, error) {
	var res ReconcileResult

	var current []models.ClassFee
	if err := db.Where("fee_id = ? AND active = ?", feeID, true).Find(&current).Error; err != nil {
		return res, fmt.Errorf("load assignments for fee %s: %w", feeID, err)
	}
	byClass := make(map[string]models.ClassFee, len(current))
	for _, cf := range current {
		byClass[cf.ClassID] = cf
	}

	seen := make(map[string]bool, len(desired))
	for _, d := range desired {
		if d.ClassID == "" {
			res.Errors = append(res.Errors, ItemError{Op: "add", Message: "missing class id"})
			continue
		}
		if seen[d.ClassID] {
			// duplicate entries in the request collapse to the first
			continue
		}
		seen[d.ClassID] = true

		due := d.DueDate
		if due.IsZero() {
			due = DefaultDueDate(time.Now())
		}

		cur, exists := byClass[d.ClassID]
		if !exists {
			cf := models.ClassFee{
				FeeID:   feeID,
				ClassID: d.ClassID,
				DueDate: due,
				Note:    d.Note,
				Active:  true,
			}
			if err := db.Create(&cf).Error; err != nil {
				res.Errors = append(res.Errors, ItemError{ClassID: d.ClassID, Op: "add", Message: err.Error()})
				continue
			}
			res.Added = append(res.Added, cf)
			continue
		}

		if sameDay(cur.DueDate, due) && (d.Note == "" || d.Note == cur.Note) {
			continue // no-op
		}
		updates := map[string]any{"due_date": due}
		if d.Note != "" {
			updates["note"] = d.Note
		}
		if err := db.Model(&models.ClassFee{}).Where("id = ?", cur.ID).Updates(updates).Error; err != nil {
			res.Errors = append(res.Errors, ItemError{ClassID: d.ClassID, Op: "update", Message: err.Error()})
			continue
		}
		cur.DueDate = due
		if d.Note != "" {
			cur.Note = d.Note
		}
		res.Updated = append(res.Updated, cur)
	}

	// Anything currently active but absent from desired gets soft-removed.
	for _, cf := range current {
		if seen[cf.ClassID] {
			continue
		}
		if err := db.Model(&models.ClassFee{}).Where("id = ?", cf.ID).Update("active", false).Error; err != nil {
			res.Errors = append(res.Errors, ItemError{ClassID: cf.ClassID, Op: "remove", Message: err.Error()})
			continue
		}
		cf.Active = false
		res.Removed = append(res.Removed, cf)
	}

	return res, nil
}

// CountActiveAssignments backs the fee delete guard.
func CountActiveAssignments(db *gorm.DB, feeID string) (int64, error) {
	var n int64
	err := db.Model(&models.ClassFee{}).Where("fee_id = ? AND active = ?", feeID, true).Count(&n).Error
	return n, err
}

// DeactivateAssignments marks every assignment of a fee inactive, active or
// not. Used as the cleanup side effect of a successful fee deletion.
func DeactivateAssignments(db *gorm.DB, feeID string) error {
	return db.Model(&models.ClassFee{}).Where("fee_id = ?", feeID).Update("active", false).Error
}
