package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// ItemHandler handles inventory management and browsing.
type ItemHandler struct {
	service ports.InventoryService
}

func NewItemHandler(service ports.InventoryService) *ItemHandler {
	return &ItemHandler{service: service}
}

type itemRequest struct {
	Name              string  `json:"name"                validate:"required"`
	Description       string  `json:"description"`
	Category          string  `json:"category"            validate:"required"`
	AgeRecommendation string  `json:"age_recommendation"`
	Condition         string  `json:"condition"           validate:"omitempty,oneof=excellent good fair poor"`
	ReplacementValue  float64 `json:"replacement_value"   validate:"gte=0"`
	LendingPeriodDays int     `json:"lending_period_days" validate:"gte=0"`
	Barcode           string  `json:"barcode"`
	Quantity          int     `json:"quantity"            validate:"gte=0"`
}

type maintenanceRequest struct {
	Maintenance bool `json:"maintenance"`
}

func (r itemRequest) toInput() ports.ItemInput {
	return ports.ItemInput{
		Name:              r.Name,
		Description:       r.Description,
		Category:          r.Category,
		AgeRecommendation: r.AgeRecommendation,
		Condition:         domain.ItemCondition(r.Condition),
		ReplacementValue:  r.ReplacementValue,
		LendingPeriodDays: r.LendingPeriodDays,
		Barcode:           r.Barcode,
		Quantity:          r.Quantity,
	}
}

// Create handles POST /v1/items (host).
//
// @Summary      Add an item to the library's inventory
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      itemRequest  true  "Item details"
// @Success      201   {object}  domain.Item
// @Failure      400   {object}  errorResponse
// @Router       /v1/items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.AddItem(c.Request().Context(), cl.LibraryID, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// Get handles GET /v1/items/:id.
//
// @Summary      Get a single item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  domain.Item
// @Failure      404  {object}  errorResponse
// @Router       /v1/items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.service.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// List handles GET /v1/items. Hosts are scoped to their own library; other
// roles browse any library via the library_id query parameter.
//
// @Summary      Browse inventory
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        library_id  query     string  false  "Library to browse"
// @Param        category    query     string  false  "Filter by category"
// @Param        status      query     string  false  "Filter by status"
// @Param        search      query     string  false  "Partial match on name or barcode"
// @Param        page        query     int     false  "Page (1-based)"
// @Param        limit       query     int     false  "Page size"
// @Success      200         {object}  pagedResponse
// @Router       /v1/items [get]
func (h *ItemHandler) List(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	libraryID := c.QueryParam("library_id")
	if cl.Role == domain.RoleHost {
		libraryID = cl.LibraryID
	}

	filter := ports.ListItemsFilter{
		LibraryID: libraryID,
		Category:  c.QueryParam("category"),
		Status:    c.QueryParam("status"),
		Search:    c.QueryParam("search"),
		Page:      queryInt(c.QueryParam("page"), 1),
		Limit:     queryInt(c.QueryParam("limit"), 20),
	}
	result, err := h.service.ListItems(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagedResponse{
		Data:       result.Items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Update handles PUT /v1/items/:id (host).
//
// @Summary      Update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Item ID"
// @Param        body  body      itemRequest  true  "Updated fields"
// @Success      200   {object}  domain.Item
// @Failure      404   {object}  errorResponse
// @Router       /v1/items/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.UpdateItem(c.Request().Context(), cl.LibraryID, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// SetMaintenance handles PATCH /v1/items/:id/maintenance (host).
//
// @Summary      Move an item in or out of maintenance
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Item ID"
// @Param        body  body      maintenanceRequest  true  "Desired maintenance flag"
// @Success      200   {object}  domain.Item
// @Failure      422   {object}  errorResponse
// @Router       /v1/items/{id}/maintenance [patch]
func (h *ItemHandler) SetMaintenance(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req maintenanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, err := h.service.SetMaintenance(c.Request().Context(), cl.LibraryID, c.Param("id"), req.Maintenance)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /v1/items/:id (host).
//
// @Summary      Remove an item from inventory
// @Tags         items
// @Security     BearerAuth
// @Param        id  path  string  true  "Item ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteItem(c.Request().Context(), cl.LibraryID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /v1/items/:id/images (host, multipart form).
//
// @Summary      Attach an image to an item
// @Tags         items
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Item ID"
// @Param        image  formData  file    true  "Image file"
// @Success      200    {object}  domain.Item
// @Failure      400    {object}  errorResponse
// @Router       /v1/items/{id}/images [post]
func (h *ItemHandler) UploadImage(c echo.Context) error {
	cl, err := ctxClaims(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	item, err := h.service.AttachImage(
		c.Request().Context(),
		cl.LibraryID,
		c.Param("id"),
		fh.Filename,
		src,
		fh.Size,
		fh.Header.Get("Content-Type"),
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// DownloadImage handles GET /v1/items/:id/images/:index.
//
// @Summary      Download an item image
// @Tags         items
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id     path  string  true  "Item ID"
// @Param        index  path  int     true  "Position in the item's image list"
// @Success      200  {file}    binary
// @Failure      404  {object}  errorResponse
// @Router       /v1/items/{id}/images/{index} [get]
func (h *ItemHandler) DownloadImage(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image index")
	}

	rc, contentType, err := h.service.ItemImage(c.Request().Context(), c.Param("id"), index)
	if err != nil {
		return err
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, contentType, rc)
}
