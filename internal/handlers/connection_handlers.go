package handlers

import (
	"net/http"

	"appaudit/internal/common"
	"appaudit/internal/services"

	"github.com/labstack/echo/v4"
)

// ConnectionHandlers handles tenant connection HTTP requests
type ConnectionHandlers struct {
	connectionService services.ConnectionService
}

func NewConnectionHandlers(connectionService services.ConnectionService) *ConnectionHandlers {
	return &ConnectionHandlers{connectionService: connectionService}
}

// CreateConnectionRequest represents the connection creation payload. The
// client secret itself is never accepted over the API; callers pass a
// reference into the secret store.
type CreateConnectionRequest struct {
	PropertyID string `json:"property_id"`
	Provider   string `json:"provider"`
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	ClientID   string `json:"client_id"`
	SecretRef  string `json:"secret_ref"`
}

func (h *ConnectionHandlers) CreateConnection(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req CreateConnectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	propertyID, err := common.ValidateUUID(req.PropertyID, "property_id")
	if err != nil {
		return common.SendValidationError(c, "property_id", err.Error())
	}
	if err := common.ValidateRequiredString(req.TenantID, "tenant_id"); err != nil {
		return common.SendValidationError(c, "tenant_id", err.Error())
	}
	if err := common.ValidateRequiredString(req.ClientID, "client_id"); err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}
	if err := common.ValidateRequiredString(req.SecretRef, "secret_ref"); err != nil {
		return common.SendValidationError(c, "secret_ref", err.Error())
	}

	conn, err := h.connectionService.Create(c.Request().Context(), actor, services.CreateConnectionRequest{
		PropertyID: propertyID,
		Provider:   req.Provider,
		TenantID:   req.TenantID,
		TenantName: req.TenantName,
		ClientID:   req.ClientID,
		SecretRef:  req.SecretRef,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, conn)
}

func (h *ConnectionHandlers) GetConnection(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	connID, err := common.ValidateUUID(c.Param("id"), "connection id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	conn, err := h.connectionService.Get(c.Request().Context(), actor, connID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, conn)
}

func (h *ConnectionHandlers) ListConnections(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	propertyID, err := common.ValidateUUID(c.QueryParam("property_id"), "property_id")
	if err != nil {
		return common.SendValidationError(c, "property_id", err.Error())
	}

	conns, err := h.connectionService.ListByProperty(c.Request().Context(), actor, propertyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"connections": conns})
}

func (h *ConnectionHandlers) RevokeConnection(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	connID, err := common.ValidateUUID(c.Param("id"), "connection id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.connectionService.Revoke(c.Request().Context(), actor, connID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ConnectionHandlers) DeleteConnection(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	connID, err := common.ValidateUUID(c.Param("id"), "connection id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.connectionService.Delete(c.Request().Context(), actor, connID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
