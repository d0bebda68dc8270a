package handlers

import (
	"net/http"
	"strconv"

	"appaudit/internal/common"
	"appaudit/internal/models"
	"appaudit/internal/services"

	"github.com/labstack/echo/v4"
)

// ScanHandlers handles scan and discovered-app HTTP requests
type ScanHandlers struct {
	scanService services.ScanService
}

func NewScanHandlers(scanService services.ScanService) *ScanHandlers {
	return &ScanHandlers{scanService: scanService}
}

// TriggerScan runs an on-demand scan of one connection's tenant.
func (h *ScanHandlers) TriggerScan(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	connID, err := common.ValidateUUID(c.Param("id"), "connection id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	scan, err := h.scanService.Run(c.Request().Context(), actor, connID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, scan)
}

func (h *ScanHandlers) ListScans(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	connID, err := common.ValidateUUID(c.Param("id"), "connection id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return common.SendValidationError(c, "limit", "limit must be an integer")
		}
	}

	scans, err := h.scanService.ListScans(c.Request().Context(), actor, connID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"scans": scans})
}

// ListApps returns the apps discovered by the connection's latest scan,
// ordered most dangerous first, optionally filtered by risk level.
func (h *ScanHandlers) ListApps(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	connID, err := common.ValidateUUID(c.Param("id"), "connection id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	riskLevel := c.QueryParam("risk_level")
	if riskLevel != "" && !models.RiskLevel(riskLevel).Valid() {
		return common.SendValidationError(c, "risk_level", "risk_level must be high, medium or low")
	}

	apps, err := h.scanService.ListApps(c.Request().Context(), actor, connID, riskLevel)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"apps": apps})
}

func (h *ScanHandlers) GetSummary(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	connID, err := common.ValidateUUID(c.Param("id"), "connection id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	counts, err := h.scanService.Summary(c.Request().Context(), actor, connID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, counts)
}
