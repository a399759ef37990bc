package adjustments

import (
	"strconv"

	adjsvc "lcfs-backend/internal/application/adjustments"
	"lcfs-backend/internal/middleware"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles issuance handlers with dependencies.
type Handlers struct {
	Service *adjsvc.Service
}

type issuanceRequest struct {
	ToOrganizationID uint   `json:"to_organization_id"`
	ComplianceUnits  int64  `json:"compliance_units"`
	Comment          string `json:"comment"`
}

// CreateAdminAdjustment POST /api/v1/admin-adjustments
func (h *Handlers) CreateAdminAdjustment(c *fiber.Ctx) error {
	var body issuanceRequest
	if err := c.BodyParser(&body); err != nil || body.ToOrganizationID == 0 {
		return response.Error(c, "to_organization_id and compliance_units are required", 400, nil)
	}
	a, err := h.Service.CreateAdminAdjustment(c.Context(), middleware.GetActor(c), body.ToOrganizationID, body.ComplianceUnits, body.Comment)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Administrative adjustment created successfully", a, nil)
}

// TransitionAdminAdjustment POST /api/v1/admin-adjustments/:id/transition
func (h *Handlers) TransitionAdminAdjustment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid adjustment id", 400, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", 400, nil)
	}
	a, err := h.Service.TransitionAdminAdjustment(c.Context(), middleware.GetActor(c), id, body.Status)
	if err != nil {
		return err
	}
	return response.Success(c, "Administrative adjustment updated", a, nil)
}

// ViewAdminAdjustment GET /api/v1/admin-adjustments/:id
func (h *Handlers) ViewAdminAdjustment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid adjustment id", 400, nil)
	}
	a, err := h.Service.GetAdminAdjustment(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Administrative adjustment fetched", a, nil)
}

// CreateInitiativeAgreement POST /api/v1/initiative-agreements
func (h *Handlers) CreateInitiativeAgreement(c *fiber.Ctx) error {
	var body issuanceRequest
	if err := c.BodyParser(&body); err != nil || body.ToOrganizationID == 0 {
		return response.Error(c, "to_organization_id and compliance_units are required", 400, nil)
	}
	a, err := h.Service.CreateInitiativeAgreement(c.Context(), middleware.GetActor(c), body.ToOrganizationID, body.ComplianceUnits, body.Comment)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Initiative agreement created successfully", a, nil)
}

// TransitionInitiativeAgreement POST /api/v1/initiative-agreements/:id/transition
func (h *Handlers) TransitionInitiativeAgreement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid agreement id", 400, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", 400, nil)
	}
	a, err := h.Service.TransitionInitiativeAgreement(c.Context(), middleware.GetActor(c), id, body.Status)
	if err != nil {
		return err
	}
	return response.Success(c, "Initiative agreement updated", a, nil)
}

// ViewInitiativeAgreement GET /api/v1/initiative-agreements/:id
func (h *Handlers) ViewInitiativeAgreement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid agreement id", 400, nil)
	}
	a, err := h.Service.GetInitiativeAgreement(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Initiative agreement fetched", a, nil)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	return uint(id), err
}
