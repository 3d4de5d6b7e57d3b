package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"kitaverwaltung-backend/database"
	"kitaverwaltung-backend/middlewares"
	"kitaverwaltung-backend/models"
	"kitaverwaltung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type InvoiceUpdateDTO struct {
	AmountDue *string `json:"amount_due" validate:"omitempty"`
	DueDate   *string `json:"due_date" validate:"omitempty"`
	Status    *string `json:"status" validate:"omitempty,oneof=pending paid"`
	// Reason is audit-only; non-pointer fields never become column updates.
	Reason string `json:"reason"`
}

type PaymentCreateDTO struct {
	Method      string `json:"payment_method" validate:"required,oneof=cash transfer card other"`
	TotalAmount string `json:"total_amount" validate:"required"`
	PaymentTime string `json:"payment_time" validate:"omitempty"`
	Note        string `json:"note"`
}

// PUT /api/invoices/:id
// Administrative correction: overrides amount and/or due date, and is the only
// way a stored "paid" goes back to "pending". Every correction keeps a
// before-image in invoice_adjustments.
func UpdateInvoice(c *fiber.Ctx) error {
	var invoice models.Invoice
	if err := database.DB.First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Invoice not found"})
	}

	var dto InvoiceUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&dto)
	if dto.AmountDue != nil {
		amount, err := utils.ParseAmount(*dto.AmountDue)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid amount", "error": err.Error()})
		}
		updates["amount_due"] = amount
	}
	if dto.DueDate != nil {
		due, err := time.Parse(dueDateLayout, *dto.DueDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid due date (want YYYY-MM-DD)"})
		}
		updates["due_date"] = due
	}
	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Nothing to update"})
	}

	// Before-image for the audit trail.
	snapshot, _ := json.Marshal(invoice)
	userID, _ := c.Locals("userID").(string)
	adjustment := models.InvoiceAdjustment{
		InvoiceID: invoice.ID,
		Reason:    dto.Reason,
		Snapshot:  snapshot,
		UserID:    userID,
	}
	if err := database.DB.Create(&adjustment).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not record adjustment", "error": err.Error()})
	}

	if err := database.DB.Model(&invoice).Updates(updates).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Could not update invoice", "error": err.Error()})
	}

	database.DB.First(&invoice, "id = ?", invoice.ID)
	return c.JSON(fiber.Map{"success": true, "data": invoice})
}

// POST /api/invoices/:id/payments
func CreatePayment(c *fiber.Ctx) error {
	var invoice models.Invoice
	if err := database.DB.First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Invoice not found"})
	}
	if invoice.PaymentID != nil {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "Invoice already has a payment", "error": "conflict"})
	}

	var dto PaymentCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	amount, err := utils.ParseAmount(dto.TotalAmount)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid amount", "error": err.Error()})
	}
	paidAt := time.Now()
	if dto.PaymentTime != "" {
		t, err := time.Parse(time.RFC3339, dto.PaymentTime)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid payment time (want RFC3339)"})
		}
		paidAt = t
	}

	payment := models.Payment{
		Method:      dto.Method,
		TotalAmount: amount,
		PaidAt:      paidAt,
		Note:        dto.Note,
	}
	if err := database.DB.Create(&payment).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not record payment", "error": err.Error()})
	}

	updates := map[string]any{"payment_id": payment.ID}
	if amount.GreaterThanOrEqual(invoice.AmountDue) {
		updates["status"] = models.InvoiceStatusPaid
	}
	if err := database.DB.Model(&invoice).Updates(updates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not link payment", "error": err.Error()})
	}

	database.DB.First(&invoice, "id = ?", invoice.ID)
	return c.Status(201).JSON(fiber.Map{"success": true, "data": fiber.Map{
		"payment": payment,
		"invoice": invoice,
	}})
}

// GET /api/invoices/:id/payments
func ListPayments(c *fiber.Ctx) error {
	var invoice models.Invoice
	if err := database.DB.First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Invoice not found"})
	}

	payments := []models.Payment{}
	if invoice.PaymentID != nil {
		var p models.Payment
		err := database.DB.First(&p, "id = ?", *invoice.PaymentID).Error
		switch {
		case err == nil:
			payments = append(payments, p)
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Dangling reference; the invoice simply has no payment to show.
		default:
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not load payment", "error": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"success": true, "data": payments})
}
