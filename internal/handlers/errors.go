package handlers

import (
	"errors"
	"net/http"

	"appaudit/internal/common"
	"appaudit/internal/msgraph"
	"appaudit/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// respondError maps service and provider errors onto the API's error
// envelope. Provider messages are safe to forward; secrets never reach
// error values in the first place.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		return common.SendForbiddenError(c)
	case errors.Is(err, services.ErrInvalidRole):
		return common.SendClientError(c, "Invalid role")
	case errors.Is(err, services.ErrPropertyHasConnections):
		return common.SendConflictError(c, "Property still has connections")
	case errors.Is(err, services.ErrScanInProgress):
		return common.SendConflictError(c, "A scan is already running for this connection")
	case errors.Is(err, pgx.ErrNoRows):
		return common.SendNotFoundError(c, "Resource")
	}

	var exchErr *msgraph.TokenExchangeError
	if errors.As(err, &exchErr) {
		return c.JSON(http.StatusBadGateway, common.CreateErrorResponse(
			"PROVIDER_AUTH_FAILED", "Tenant credential validation failed", map[string]string{
				"provider_message": exchErr.ProviderMessage,
			}))
	}

	var graphErr *msgraph.GraphAPIError
	if errors.As(err, &graphErr) {
		return c.JSON(http.StatusBadGateway, common.CreateErrorResponse(
			"PROVIDER_ERROR", "Provider request failed", nil))
	}

	if errors.Is(err, msgraph.ErrSecretUnavailable) {
		return common.SendServerError(c, "Tenant secret could not be resolved")
	}

	var storeErr *services.StoreWriteError
	if errors.As(err, &storeErr) {
		return common.SendServerError(c, "Failed to persist scan results")
	}

	return common.SendServerError(c, "Operation could not be completed")
}

// requireActor pulls the authenticated user out of the request context.
func requireActor(c echo.Context) (uuid.UUID, error) {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return userID, nil
}
