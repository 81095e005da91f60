package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// OfficersHandler manages officer accounts and shared password flows.
type OfficersHandler struct {
	auth *service.AuthService
}

// NewOfficersHandler constructs handler.
func NewOfficersHandler(authService *service.AuthService) *OfficersHandler {
	return &OfficersHandler{auth: authService}
}

// Login POST /auth/officers/login.
func (h *OfficersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	officer, result, err := h.auth.LoginOfficer(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"officer": officerResponse(officer),
		"auth":    dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
	}})
}

// Create POST /admin/officers; admin only.
func (h *OfficersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateOfficerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	officer := &domain.Officer{
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		ProjectID: req.ProjectID,
		RegionID:  req.RegionID,
	}
	created, err := h.auth.CreateOfficer(c.Context(), officer, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": officerResponse(created)})
}

// RequestPasswordReset POST /auth/password/reset/request.
func (h *OfficersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	subject := req.SubjectType
	if subject == "" {
		subject = domain.SubjectTypeUser
	}
	if _, err := h.auth.RequestPasswordReset(c.Context(), subject, req.Email); err != nil {
		return err
	}
	// same response whether the account exists or not
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "accepted"}})
}

// ConfirmPasswordReset POST /auth/password/reset/confirm.
func (h *OfficersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_updated"}})
}

// ChangePassword POST /auth/password/change.
func (h *OfficersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	var subjectID string
	switch {
	case principal.User != nil:
		subjectID = principal.User.ID
	case principal.Officer != nil:
		subjectID = principal.Officer.ID
	default:
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.ChangePassword(c.Context(), principal.SubjectType, subjectID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_updated"}})
}

func officerResponse(officer *domain.Officer) dto.OfficerResponse {
	return dto.OfficerResponse{
		ID:        officer.ID,
		Name:      officer.Name,
		Email:     officer.Email,
		Role:      officer.Role,
		ProjectID: officer.ProjectID,
		RegionID:  officer.RegionID,
		Active:    officer.Active,
		CreatedAt: officer.CreatedAt,
	}
}
