package handlers

import (
	"net/http"

	"appaudit/internal/common"
	"appaudit/internal/services"

	"github.com/labstack/echo/v4"
)

// PropertyHandlers handles property HTTP requests
type PropertyHandlers struct {
	propertyService services.PropertyService
}

func NewPropertyHandlers(propertyService services.PropertyService) *PropertyHandlers {
	return &PropertyHandlers{propertyService: propertyService}
}

// CreatePropertyRequest represents the property creation payload
type CreatePropertyRequest struct {
	OrgID       string `json:"org_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *PropertyHandlers) CreateProperty(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req CreatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	orgID, err := common.ValidateUUID(req.OrgID, "org_id")
	if err != nil {
		return common.SendValidationError(c, "org_id", err.Error())
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	property, err := h.propertyService.Create(c.Request().Context(), actor, services.CreatePropertyRequest{
		OrgID:       orgID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, property)
}

func (h *PropertyHandlers) GetProperty(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	propertyID, err := common.ValidateUUID(c.Param("id"), "property id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	property, err := h.propertyService.Get(c.Request().Context(), actor, propertyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

// UpdatePropertyRequest represents the property update payload
type UpdatePropertyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *PropertyHandlers) UpdateProperty(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	propertyID, err := common.ValidateUUID(c.Param("id"), "property id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.propertyService.Update(c.Request().Context(), actor, propertyID, services.UpdatePropertyRequest{
		Name:        req.Name,
		Description: req.Description,
	}); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PropertyHandlers) DeleteProperty(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	propertyID, err := common.ValidateUUID(c.Param("id"), "property id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.propertyService.Delete(c.Request().Context(), actor, propertyID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PropertyHandlers) ListProperties(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.QueryParam("org_id"), "org_id")
	if err != nil {
		return common.SendValidationError(c, "org_id", err.Error())
	}

	properties, err := h.propertyService.ListByOrg(c.Request().Context(), actor, orgID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"properties": properties})
}
