package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// ReportHandler serves the read-only dashboard aggregates.
type ReportHandler struct {
	service ports.ReportService
}

func NewReportHandler(service ports.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// HostDashboard handles GET /v1/reports/dashboard (host, own library).
//
// @Summary      Library dashboard summary
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.HostDashboard
// @Router       /v1/reports/dashboard [get]
func (h *ReportHandler) HostDashboard(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	d, err := h.service.HostDashboard(c.Request().Context(), cl.LibraryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// PlatformAnalytics handles GET /v1/admin/analytics (super-user).
//
// @Summary      Platform-wide analytics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.PlatformAnalytics
// @Router       /v1/admin/analytics [get]
func (h *ReportHandler) PlatformAnalytics(c echo.Context) error {
	a, err := h.service.PlatformAnalytics(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
