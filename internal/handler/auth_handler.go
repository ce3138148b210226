package handler

import (
	"accounting-admin/internal/models"
	"accounting-admin/internal/service"
	"accounting-admin/internal/utils"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

type AuthHandler struct {
	authService *service.AuthService
	store       *session.Store
}

func NewAuthHandler(authService *service.AuthService, store *session.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		return authErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, "Login successful", resp)
}

// Logout ends the web session if any. JWT clients drop their token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if h.store != nil {
		_ = h.authService.WebLogout(c, h.store)
	}
	return utils.SuccessResponse(c, "Logout successful", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User not logged in", nil)
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", err)
	}

	return utils.SuccessResponse(c, "User retrieved successfully", user)
}

func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.Render("auth/login", fiber.Map{
		"Title": "Login",
	})
}

// WebLogin handles the login form
func (h *AuthHandler) WebLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil || len(utils.ValidateStruct(req)) > 0 {
		return c.Status(fiber.StatusBadRequest).Render("auth/login", fiber.Map{
			"Title":    "Login",
			"Error":    "Username and password are required",
			"Username": req.Username,
		})
	}

	if _, err := h.authService.WebLogin(req, c, h.store); err != nil {
		status := fiber.StatusUnauthorized
		if !errors.Is(err, service.ErrInvalidCredentials) && !errors.Is(err, service.ErrInactiveUser) {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).Render("auth/login", fiber.Map{
			"Title":    "Login",
			"Error":    err.Error(),
			"Username": req.Username,
		})
	}

	return c.Redirect("/")
}

func (h *AuthHandler) WebLogout(c *fiber.Ctx) error {
	_ = h.authService.WebLogout(c, h.store)
	return c.Redirect("/login")
}

func authErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveUser):
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, err.Error(), nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", err)
	}
}
