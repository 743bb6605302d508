package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/barberbook/backend/core"
	"github.com/barberbook/backend/pkg/logger"
	"github.com/barberbook/backend/pkg/sanitizer"
	"github.com/barberbook/backend/pkg/validator"
)

// Handler exposes the auth HTTP endpoints.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// NewHandler creates the auth HTTP handler.
func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token                 string `json:"token"`
	Username              string `json:"username"`
	Name                  string `json:"name"`
	RequiresPasswordSetup bool   `json:"requiresPasswordSetup"`
	TenantName            string `json:"tenantName"`
	IsDefaultTenant       bool   `json:"isDefaultTenant"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = sanitizer.TrimString(req.Username)

	if err := validator.Apply(
		validator.Required("username", req.Username),
		validator.Required("password", req.Password),
	); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			core.ValidationError(w, verrs.Fields())
			return
		}
		core.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.Error(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.log.ErrorContext(r.Context(), "login failed", logger.Error(err))
		core.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	core.JSON(w, http.StatusOK, loginResponse{
		Token:                 result.Token,
		Username:              result.Username,
		Name:                  result.Name,
		RequiresPasswordSetup: result.RequiresPasswordSetup,
		TenantName:            result.TenantName,
		IsDefaultTenant:       result.IsDefaultTenant,
	})
}

type statusResponse struct {
	Authenticated   bool   `json:"authenticated"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	TenantSubdomain string `json:"tenantSubdomain"`
}

// Status reports the authenticated admin behind the presented credential.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	claims, err := ClaimsFromContext(r.Context())
	if err != nil {
		core.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	core.JSON(w, http.StatusOK, statusResponse{
		Authenticated:   true,
		Username:        claims.Username,
		Name:            claims.Name,
		Role:            claims.Role,
		TenantSubdomain: claims.TenantSubdomain,
	})
}

type setupPasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) SetupPassword(w http.ResponseWriter, r *http.Request) {
	claims, err := ClaimsFromContext(r.Context())
	if err != nil {
		core.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req setupPasswordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.validateNewPassword(w, req.NewPassword, req.ConfirmPassword) {
		return
	}

	adminID, err := claims.AdminID()
	if err != nil {
		core.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	if err := h.service.SetupPassword(r.Context(), adminID, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]string{"message": "Password set successfully"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := ClaimsFromContext(r.Context())
	if err != nil {
		core.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Apply(
		validator.Required("currentPassword", req.CurrentPassword),
	); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			core.ValidationError(w, verrs.Fields())
			return
		}
	}
	if !h.validateNewPassword(w, req.NewPassword, req.ConfirmPassword) {
		return
	}

	adminID, err := claims.AdminID()
	if err != nil {
		core.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	if err := h.service.ChangePassword(r.Context(), adminID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrPasswordIncorrect) {
			core.Error(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword always answers 202: the response must not reveal whether
// the email belongs to an account.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = sanitizer.NormalizeEmail(req.Email)

	if err := validator.Apply(
		validator.Required("email", req.Email),
		validator.ValidEmail("email", req.Email),
	); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			core.ValidationError(w, verrs.Fields())
			return
		}
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		// Delivery problems are logged, never surfaced.
		h.log.ErrorContext(r.Context(), "password reset request failed", logger.Error(err))
	}

	core.JSON(w, http.StatusAccepted, map[string]string{
		"message": "If the email is registered, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Token == "" {
		core.Error(w, http.StatusBadRequest, msgResetTokenInvalid)
		return
	}
	if !h.validateNewPassword(w, req.NewPassword, req.ConfirmPassword) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			core.Error(w, http.StatusBadRequest, msgResetTokenInvalid)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

// msgResetTokenInvalid is the single answer for every reset failure mode.
const msgResetTokenInvalid = "Invalid, expired, or already used reset token"

func (h *Handler) validateNewPassword(w http.ResponseWriter, password, confirm string) bool {
	err := validator.Apply(
		validator.Required("newPassword", password),
		validator.StrongPassword("newPassword", password, validator.DefaultPasswordStrength()),
		validator.NotCommonPassword("newPassword", password),
		validator.PasswordsMatch("confirmPassword", password, confirm),
	)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			core.ValidationError(w, verrs.Fields())
			return false
		}
		core.Error(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrAdminNotFound) {
		core.Error(w, http.StatusNotFound, "Admin not found")
		return
	}
	h.log.ErrorContext(r.Context(), "auth request failed", logger.Error(err))
	core.Error(w, http.StatusInternalServerError, "Internal server error")
}
