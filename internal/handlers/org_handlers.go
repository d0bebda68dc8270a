package handlers

import (
	"net/http"

	"appaudit/internal/common"
	"appaudit/internal/models"
	"appaudit/internal/services"

	"github.com/labstack/echo/v4"
)

// OrgHandlers handles organization and membership HTTP requests
type OrgHandlers struct {
	orgService services.OrganizationService
}

func NewOrgHandlers(orgService services.OrganizationService) *OrgHandlers {
	return &OrgHandlers{orgService: orgService}
}

// CreateOrgRequest represents the organization creation payload
type CreateOrgRequest struct {
	Name string `json:"name"`
}

func (h *OrgHandlers) CreateOrg(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req CreateOrgRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	org, err := h.orgService.Create(c.Request().Context(), actor, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, org)
}

func (h *OrgHandlers) GetOrg(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	org, err := h.orgService.Get(c.Request().Context(), actor, orgID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, org)
}

func (h *OrgHandlers) ListOrgs(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgs, err := h.orgService.ListForUser(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"organizations": orgs})
}

// UpdateOrgRequest represents the organization rename payload
type UpdateOrgRequest struct {
	Name string `json:"name"`
}

func (h *OrgHandlers) UpdateOrg(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateOrgRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.orgService.Rename(c.Request().Context(), actor, orgID, req.Name); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrgHandlers) DeleteOrg(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.orgService.Delete(c.Request().Context(), actor, orgID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MemberRequest represents add/update membership payloads
type MemberRequest struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	ManageOwners bool   `json:"manage_owners"`
}

func (h *OrgHandlers) AddMember(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req MemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	userID, err := common.ValidateUUID(req.UserID, "user_id")
	if err != nil {
		return common.SendValidationError(c, "user_id", err.Error())
	}

	if err := h.orgService.AddMember(c.Request().Context(), actor, orgID, userID, models.Role(req.Role), req.ManageOwners); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *OrgHandlers) UpdateMemberRole(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	userID, err := common.ValidateUUID(c.Param("userId"), "user id")
	if err != nil {
		return common.SendValidationError(c, "userId", err.Error())
	}

	var req MemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.orgService.UpdateMemberRole(c.Request().Context(), actor, orgID, userID, models.Role(req.Role), req.ManageOwners); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrgHandlers) RemoveMember(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	userID, err := common.ValidateUUID(c.Param("userId"), "user id")
	if err != nil {
		return common.SendValidationError(c, "userId", err.Error())
	}

	manageOwners := c.QueryParam("manage_owners") == "true"

	if err := h.orgService.RemoveMember(c.Request().Context(), actor, orgID, userID, manageOwners); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrgHandlers) ListMembers(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	orgID, err := common.ValidateUUID(c.Param("id"), "organization id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	members, err := h.orgService.ListMembers(c.Request().Context(), actor, orgID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"members": members})
}
