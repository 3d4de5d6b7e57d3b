package controllers

import (
	"errors"
	"time"

	"kitaverwaltung-backend/database"
	"kitaverwaltung-backend/middlewares"
	"kitaverwaltung-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClassCreateDTO struct {
	Name string `json:"name" validate:"required,min=1"`
	Room string `json:"room" validate:"omitempty"`
}

type StudentCreateDTO struct {
	FirstName string `json:"first_name" validate:"required,min=1"`
	LastName  string `json:"last_name" validate:"required,min=1"`
	BirthDate string `json:"birth_date" validate:"omitempty"`
}

type EnrollmentCreateDTO struct {
	StudentID       string `json:"student_id" validate:"required"`
	ClassID         string `json:"class_id" validate:"required"`
	DiscountPercent int    `json:"discount_percent" validate:"min=0,max=100"`
}

// POST /api/classes
func CreateClass(c *fiber.Ctx) error {
	var dto ClassCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	class := models.Class{Name: dto.Name, Room: dto.Room}
	if err := database.DB.Create(&class).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Could not create class", "error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "data": class})
}

// GET /api/classes
func GetClasses(c *fiber.Ctx) error {
	var classes []models.Class
	if err := database.DB.Order("name").Find(&classes).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not list classes", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "data": classes})
}

// POST /api/students
func CreateStudent(c *fiber.Ctx) error {
	var dto StudentCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	student := models.Student{FirstName: dto.FirstName, LastName: dto.LastName}
	if dto.BirthDate != "" {
		bd, err := time.Parse(dueDateLayout, dto.BirthDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid birth date (want YYYY-MM-DD)"})
		}
		student.BirthDate = &bd
	}
	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Could not create student", "error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "data": student})
}

// POST /api/enrollments
func CreateEnrollment(c *fiber.Ctx) error {
	var dto EnrollmentCreateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", dto.StudentID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Student not found"})
	}
	var class models.Class
	if err := database.DB.First(&class, "id = ?", dto.ClassID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Class not found"})
	}

	var existing models.Enrollment
	err := database.DB.
		Where("student_id = ? AND class_id = ? AND active = ?", dto.StudentID, dto.ClassID, true).
		First(&existing).Error
	if err == nil {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "Student is already enrolled in this class", "error": "conflict"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not check enrollment", "error": err.Error()})
	}

	enrollment := models.Enrollment{
		StudentID:       dto.StudentID,
		ClassID:         dto.ClassID,
		DiscountPercent: dto.DiscountPercent,
		Active:          true,
	}
	if err := database.DB.Create(&enrollment).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Could not create enrollment", "error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "data": enrollment})
}

// GET /api/classes/:id/enrollments
func GetEnrollments(c *fiber.Ctx) error {
	var class models.Class
	if err := database.DB.First(&class, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Class not found"})
	}

	var enrollments []models.Enrollment
	err := database.DB.Preload("Student").
		Where("class_id = ? AND active = ?", class.ID, true).
		Order("created_at").
		Find(&enrollments).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Could not list enrollments", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "data": enrollments})
}
