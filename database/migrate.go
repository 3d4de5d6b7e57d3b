package database

import (
	"fmt"

	"kitaverwaltung-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - Money column types (NUMERIC(12,2))
// - Partial unique index: one active assignment per (fee, class)
// - Basic CHECK constraints (non-negative money, 0..100 discount)
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Class{},
			&models.Student{},
			&models.Enrollment{},
			&models.Fee{},
			&models.ClassFee{},
			&models.Invoice{},
			&models.Payment{},
			&models.InvoiceAdjustment{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE fees     ALTER COLUMN base_amount  TYPE numeric(12,2)`,
			`ALTER TABLE invoices ALTER COLUMN amount_due   TYPE numeric(12,2)`,
			`ALTER TABLE payments ALTER COLUMN total_amount TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Indexes (idempotent) ---
		// The partial unique index is the invariant "at most one active
		// assignment per (fee, class)"; inactive history rows stay around.
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_class_fees_fee_class_active ON class_fees (fee_id, class_id) WHERE active`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_student_class_active ON enrollments (student_id, class_id) WHERE active`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_class_fee ON invoices (class_fee_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'fees'::regclass
					  AND conname  = 'chk_fees_base_amount_nonneg'
				) THEN
					ALTER TABLE fees
					ADD CONSTRAINT chk_fees_base_amount_nonneg
					CHECK (base_amount >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'invoices'::regclass
					  AND conname  = 'chk_invoices_amount_due_nonneg'
				) THEN
					ALTER TABLE invoices
					ADD CONSTRAINT chk_invoices_amount_due_nonneg
					CHECK (amount_due >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_total_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_total_amount_nonneg
					CHECK (total_amount >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'enrollments'::regclass
					  AND conname  = 'chk_enrollments_discount_range'
				) THEN
					ALTER TABLE enrollments
					ADD CONSTRAINT chk_enrollments_discount_range
					CHECK (discount_percent BETWEEN 0 AND 100);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
