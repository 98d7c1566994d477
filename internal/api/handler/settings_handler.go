package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// SettingsHandler handles per-library circulation settings and the
// platform-wide security settings.
type SettingsHandler struct {
	service ports.LibraryService
}

func NewSettingsHandler(service ports.LibraryService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

type librarySettingsRequest struct {
	DefaultLoanDays  int     `json:"default_loan_days"  validate:"required,gt=0"`
	LateFeePerDay    float64 `json:"late_fee_per_day"   validate:"gte=0"`
	PickupWindowDays int     `json:"pickup_window_days" validate:"required,gt=0"`
	Currency         string  `json:"currency"           validate:"required,len=3"`
}

type platformSettingsRequest struct {
	TwoFactorRequired   bool `json:"two_factor_required"`
	PasswordMinLength   int  `json:"password_min_length" validate:"required,gte=6"`
	SessionTTLHours     int  `json:"session_ttl_hours"   validate:"required,gt=0"`
	MaintenanceMode     bool `json:"maintenance_mode"`
	RegistrationEnabled bool `json:"registration_enabled"`
}

// GetLibrarySettings handles GET /v1/settings (host, own library).
//
// @Summary      Get the library's circulation settings
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.LibrarySettings
// @Router       /v1/settings [get]
func (h *SettingsHandler) GetLibrarySettings(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	s, err := h.service.GetSettings(c.Request().Context(), cl.LibraryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateLibrarySettings handles PUT /v1/settings (host, own library).
//
// @Summary      Update the library's circulation settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      librarySettingsRequest  true  "New settings"
// @Success      200   {object}  domain.LibrarySettings
// @Failure      400   {object}  errorResponse
// @Router       /v1/settings [put]
func (h *SettingsHandler) UpdateLibrarySettings(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req librarySettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s, err := h.service.UpdateSettings(c.Request().Context(), &domain.LibrarySettings{
		LibraryID:        cl.LibraryID,
		DefaultLoanDays:  req.DefaultLoanDays,
		LateFeePerDay:    req.LateFeePerDay,
		PickupWindowDays: req.PickupWindowDays,
		Currency:         req.Currency,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// GetPlatformSettings handles GET /v1/admin/settings (super-user).
//
// @Summary      Get the platform security settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PlatformSettings
// @Router       /v1/admin/settings [get]
func (h *SettingsHandler) GetPlatformSettings(c echo.Context) error {
	s, err := h.service.GetPlatformSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// UpdatePlatformSettings handles PUT /v1/admin/settings (super-user).
//
// @Summary      Update the platform security settings
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      platformSettingsRequest  true  "New settings"
// @Success      200   {object}  domain.PlatformSettings
// @Failure      400   {object}  errorResponse
// @Router       /v1/admin/settings [put]
func (h *SettingsHandler) UpdatePlatformSettings(c echo.Context) error {
	var req platformSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s, err := h.service.UpdatePlatformSettings(c.Request().Context(), &domain.PlatformSettings{
		TwoFactorRequired:   req.TwoFactorRequired,
		PasswordMinLength:   req.PasswordMinLength,
		SessionTTLHours:     req.SessionTTLHours,
		MaintenanceMode:     req.MaintenanceMode,
		RegistrationEnabled: req.RegistrationEnabled,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
