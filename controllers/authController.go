package controllers

import (
	"net/mail"
	"time"

	"kitaverwaltung-backend/database"
	"kitaverwaltung-backend/middlewares"
	"kitaverwaltung-backend/models"

	"github.com/gofiber/fiber/v2"
)

func Register(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return err
	}

	if _, err := mail.ParseAddress(data["email"]); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"success": false, "message": "Invalid email format"})
	}

	var mailExist models.User
	database.DB.Where("email = ?", data["email"]).First(&mailExist)
	if mailExist.Email != "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"success": false, "message": "email already exists"})
	}

	if data["password"] != data["password_confirm"] {
		c.Status(400)
		return c.JSON(fiber.Map{"success": false, "message": "passwords do not match"})
	}

	role := models.RoleStaff
	if data["role"] == models.RoleAdmin {
		// The first account may bootstrap the administrator; after that,
		// only a caller holding an admin token can mint another admin.
		allowed := middlewares.BearerRole(c) == models.RoleAdmin
		if !allowed {
			var admins int64
			database.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
			allowed = admins == 0
		}
		if !allowed {
			c.Status(fiber.StatusForbidden)
			return c.JSON(fiber.Map{"success": false, "message": "administrator accounts require an administrator token"})
		}
		role = models.RoleAdmin
	}

	user := models.User{
		FirstName: data["first_name"],
		LastName:  data["last_name"],
		Email:     data["email"],
		Role:      role,
	}
	user.SetPassword(data["password"])
	if err := database.DB.Create(&user).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"success": false, "message": "Could not create user", "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": user})
}

func Login(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return err
	}

	if _, err := mail.ParseAddress(data["email"]); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"success": false, "message": "Invalid email format"})
	}

	var user models.User
	database.DB.Where("email = ?", data["email"]).First(&user)
	if user.ID == "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"success": false, "message": "Invalid credentials"})
	}

	if err := user.ComparePassword(data["password"]); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"success": false, "message": "Invalid credentials"})
	}

	token, err := middlewares.GenerateJWT(user.ID, user.Role)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"success": false, "message": "Could not issue token", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func Logout(c *fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}
	c.Cookie(&cookie)
	return c.JSON(fiber.Map{"success": true})
}
