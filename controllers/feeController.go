package controllers

import (
	"fmt"
	"time"

	"kitaverwaltung-backend/billing"
	"kitaverwaltung-backend/database"
	"kitaverwaltung-backend/middlewares"
	"kitaverwaltung-backend/models"
	"kitaverwaltung-backend/utils"

	"github.com/gofiber/fiber/v2"
)

const dueDateLayout = "2006-01-02"

type FeeCreateDTO struct {
	Name        string   `json:"name" validate:"required,min=1"`
	Description string   `json:"description" validate:"required,min=1"`
	BaseAmount  string   `json:"base_amount" validate:"required"`
	ClassIDs    []string `json:"class_ids" validate:"omitempty,dive,required"`
	// On create a single due date is shared by every selected class;
	// per-class due dates only exist on edit. Kept as-is from the original
	// API shape (see DESIGN.md).
	DueDate string `json:"due_date" validate:"omitempty"`
}

type ClassFeeInput struct {
	ClassID string `json:"class_id" validate:"required"`
	DueDate string `json:"due_date" validate:"omitempty"`
	Note    string `json:"note"`
}

type FeeUpdateDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	BaseAmount  *string `json:"base_amount" validate:"omitempty"`
	// nil means "leave assignments alone"; an empty list detaches every class.
	ClassFees []ClassFeeInput `json:"class_fees" validate:"omitempty,dive"`
}

func parseDueDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dueDateLayout, s)
}

// POST /api/fees
func CreateFee(c *fiber.Ctx) error {
	var dto FeeCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	amount, err := utils.ParseAmount(dto.BaseAmount)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid base amount", "error": err.Error()})
	}
	due, err := parseDueDate(dto.DueDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid due date (want YYYY-MM-DD)"})
	}

	fee := models.Fee{
		Name:        dto.Name,
		Description: dto.Description,
		BaseAmount:  amount,
	}
	if err := database.DB.Create(&fee).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not create fee", "error": err.Error()})
	}

	desired := make([]billing.AssignmentInput, 0, len(dto.ClassIDs))
	for _, classID := range dto.ClassIDs {
		desired = append(desired, billing.AssignmentInput{ClassID: classID, DueDate: due})
	}
	result, err := billing.ReconcileAssignments(database.DB, fee.ID, desired)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not assign classes", "error": err.Error()})
	}

	database.DB.Preload("ClassFees", "active = ?", true).Preload("ClassFees.Class").First(&fee, "id = ?", fee.ID)

	body := fiber.Map{"success": true, "data": fee}
	if len(result.Errors) > 0 {
		body["assignment_errors"] = result.Errors
	}
	return c.Status(201).JSON(body)
}

// GET /api/fees
func GetFees(c *fiber.Ctx) error {
	page := utils.ParseIntDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := utils.ParseIntDefault(c.Query("page_size"), 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := database.DB.Model(&models.Fee{}).Count(&total).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not list fees", "error": err.Error()})
	}

	var fees []models.Fee
	err := database.DB.
		Preload("ClassFees", "active = ?", true).
		Preload("ClassFees.Class").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&fees).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not list fees", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fees,
		"pagination": fiber.Map{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// GET /api/fees/:id
func GetFee(c *fiber.Ctx) error {
	var fee models.Fee
	err := database.DB.
		Preload("ClassFees", "active = ?", true).
		Preload("ClassFees.Class").
		First(&fee, "id = ?", c.Params("id")).Error
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Fee not found"})
	}
	return c.JSON(fiber.Map{"success": true, "data": fee})
}

// PUT /api/fees/:id
func UpdateFee(c *fiber.Ctx) error {
	var fee models.Fee
	if err := database.DB.First(&fee, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Fee not found"})
	}

	var dto FeeUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	updates := utils.UpdatesFromPtrDTO(&dto)
	if dto.BaseAmount != nil {
		amount, err := utils.ParseAmount(*dto.BaseAmount)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid base amount", "error": err.Error()})
		}
		updates["base_amount"] = amount
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&fee).Updates(updates).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Could not update fee", "error": err.Error()})
		}
	}

	var assignErrors []billing.ItemError
	if dto.ClassFees != nil {
		desired := make([]billing.AssignmentInput, 0, len(dto.ClassFees))
		for i, in := range dto.ClassFees {
			due, err := parseDueDate(in.DueDate)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"success": false, "message": fmt.Sprintf("Invalid due date at index %d", i)})
			}
			desired = append(desired, billing.AssignmentInput{ClassID: in.ClassID, DueDate: due, Note: in.Note})
		}
		result, err := billing.ReconcileAssignments(database.DB, fee.ID, desired)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not reconcile class assignments", "error": err.Error()})
		}
		assignErrors = result.Errors
	}

	database.DB.Preload("ClassFees", "active = ?", true).Preload("ClassFees.Class").First(&fee, "id = ?", fee.ID)

	body := fiber.Map{"success": true, "data": fee}
	if len(assignErrors) > 0 {
		body["assignment_errors"] = assignErrors
	}
	return c.JSON(body)
}

// DELETE /api/fees/:id
// Blocked while any active class assignment references the fee; on success
// all remaining (stale) assignments are marked inactive before the fee row
// goes away.
func DeleteFee(c *fiber.Ctx) error {
	var fee models.Fee
	if err := database.DB.First(&fee, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Fee not found"})
	}

	active, err := billing.CountActiveAssignments(database.DB, fee.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not check class assignments", "error": err.Error()})
	}
	if active > 0 {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Fee has %d active class assignment(s); detach them first", active),
			"error":   "conflict",
		})
	}

	if err := billing.DeactivateAssignments(database.DB, fee.ID); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not clean up assignments", "error": err.Error()})
	}
	if err := database.DB.Delete(&fee).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not delete fee", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// GET /api/fees/:id/classes/:assignmentId/payments
func GetClassPayments(c *fiber.Ctx) error {
	var fee models.Fee
	if err := database.DB.First(&fee, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Fee not found"})
	}

	var classFee models.ClassFee
	err := database.DB.First(&classFee, "id = ? AND fee_id = ?", c.Params("assignmentId"), fee.ID).Error
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Class assignment not found"})
	}

	var class models.Class
	if err := database.DB.First(&class, "id = ?", classFee.ClassID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Class not found"})
	}

	summary, students, err := billing.SummarizeClassBilling(database.DB, classFee, time.Now())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not summarize class billing", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"fee":        fee,
			"class":      class,
			"assignment": classFee,
			"summary":    summary,
			"students":   students,
		},
	})
}
