package shop

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/barberbook/backend/core"
	"github.com/barberbook/backend/pkg/logger"
	"github.com/barberbook/backend/pkg/sanitizer"
	"github.com/barberbook/backend/pkg/tenant"
	"github.com/barberbook/backend/pkg/validator"
)

// Handler exposes the shop profile endpoints.
type Handler struct {
	storage Storage
	log     *slog.Logger
}

// NewHandler creates the shop HTTP handler.
func NewHandler(storage Storage, log *slog.Logger) *Handler {
	return &Handler{storage: storage, log: log}
}

type profileResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Subdomain       string    `json:"subdomain"`
	BusinessPhone   *string   `json:"businessPhone"`
	BusinessAddress *string   `json:"businessAddress"`
	BusinessHours   *string   `json:"businessHours"`
	LogoURL         *string   `json:"logoUrl"`
	ThemeColor      string    `json:"themeColor"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toProfileResponse(p *Profile) profileResponse {
	return profileResponse{
		ID:              p.ID,
		Name:            p.Name,
		Subdomain:       p.Subdomain,
		BusinessPhone:   p.BusinessPhone,
		BusinessAddress: p.BusinessAddress,
		BusinessHours:   p.BusinessHours,
		LogoURL:         p.LogoURL,
		ThemeColor:      p.ThemeColor,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// GetCurrent returns the resolved shop's profile.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	if !ok {
		core.Error(w, http.StatusNotFound, "Barber shop not found")
		return
	}

	profile, err := h.storage.GetProfile(r.Context(), tenantID)
	if err != nil {
		h.writeStorageError(w, r, err)
		return
	}

	core.JSON(w, http.StatusOK, toProfileResponse(profile))
}

type updateProfileRequest struct {
	Name            *string `json:"name"`
	BusinessPhone   *string `json:"businessPhone"`
	BusinessAddress *string `json:"businessAddress"`
	BusinessHours   *string `json:"businessHours"`
	LogoURL         *string `json:"logoUrl"`
	ThemeColor      *string `json:"themeColor"`
}

var themeColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// UpdateCurrent applies a partial update to the resolved shop's profile.
// Absent fields keep their stored values.
func (h *Handler) UpdateCurrent(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.IDFromContext(r.Context())
	if !ok {
		core.Error(w, http.StatusNotFound, "Barber shop not found")
		return
	}

	var req updateProfileRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var rules []validator.Rule
	if req.Name != nil {
		trimmed := sanitizer.TrimString(*req.Name)
		req.Name = &trimmed
		rules = append(rules,
			validator.Required("name", trimmed),
			validator.MaxLen("name", trimmed, 100),
		)
	}
	if req.BusinessPhone != nil {
		rules = append(rules, validator.MaxLen("businessPhone", *req.BusinessPhone, 20))
	}
	if req.BusinessAddress != nil {
		rules = append(rules, validator.MaxLen("businessAddress", *req.BusinessAddress, 255))
	}
	if req.BusinessHours != nil {
		rules = append(rules, validator.MaxLen("businessHours", *req.BusinessHours, 500))
	}
	if req.LogoURL != nil {
		rules = append(rules, validator.MaxLen("logoUrl", *req.LogoURL, 255))
	}
	if req.ThemeColor != nil && !themeColorPattern.MatchString(*req.ThemeColor) {
		core.ValidationError(w, map[string][]string{
			"themeColor": {"must be a hex color like #D4AF37"},
		})
		return
	}
	if err := validator.Apply(rules...); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			core.ValidationError(w, verrs.Fields())
			return
		}
	}

	profile, err := h.storage.UpdateProfile(r.Context(), tenantID, UpdateParams{
		Name:            req.Name,
		BusinessPhone:   req.BusinessPhone,
		BusinessAddress: req.BusinessAddress,
		BusinessHours:   req.BusinessHours,
		LogoURL:         req.LogoURL,
		ThemeColor:      req.ThemeColor,
	})
	if err != nil {
		h.writeStorageError(w, r, err)
		return
	}

	core.JSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrShopNotFound) {
		core.Error(w, http.StatusNotFound, "Barber shop not found")
		return
	}
	h.log.ErrorContext(r.Context(), "shop request failed", logger.Error(err))
	core.Error(w, http.StatusInternalServerError, "Internal server error")
}
