package reports

import (
	"strconv"

	reportsvc "lcfs-backend/internal/application/reports"
	summarysvc "lcfs-backend/internal/application/summary"
	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/middleware"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles compliance report handlers with dependencies.
type Handlers struct {
	Service *reportsvc.Service
	Summary *summarysvc.Service
}

// CreateReport POST /api/v1/reports
func (h *Handlers) CreateReport(c *fiber.Ctx) error {
	var body struct {
		OrganizationID     uint   `json:"organization_id"`
		CompliancePeriod   int    `json:"compliance_period"`
		ReportingFrequency string `json:"reporting_frequency"`
		Quarter            *int   `json:"quarter"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "organization_id and compliance_period are required", 400, nil)
	}
	if body.OrganizationID == 0 || body.CompliancePeriod == 0 {
		return response.Error(c, "organization_id and compliance_period are required", 400, nil)
	}
	r, err := h.Service.Create(c.Context(), middleware.GetActor(c), reportsvc.CreateReportInput{
		OrganizationID:     body.OrganizationID,
		CompliancePeriod:   body.CompliancePeriod,
		ReportingFrequency: body.ReportingFrequency,
		Quarter:            body.Quarter,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Report created successfully", r, nil)
}

// CreateSupplemental POST /api/v1/reports/:id/supplemental
func (h *Handlers) CreateSupplemental(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	r, err := h.Service.CreateSupplemental(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Supplemental report created successfully", r, nil)
}

// TransitionReport POST /api/v1/reports/:id/transition
func (h *Handlers) TransitionReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", 400, nil)
	}
	r, err := h.Service.Transition(c.Context(), middleware.GetActor(c), id, body.Status)
	if err != nil {
		return err
	}
	return response.Success(c, "Report updated successfully", r, nil)
}

// ViewReport GET /api/v1/reports/:id
func (h *Handlers) ViewReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	r, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Report fetched successfully", r, nil)
}

// ViewChain GET /api/v1/reports/:id/chain
func (h *Handlers) ViewChain(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	chain, err := h.Service.Chain(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Report chain fetched successfully", chain, nil)
}

// ViewSummary GET /api/v1/reports/:id/summary
func (h *Handlers) ViewSummary(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	sum, err := h.Summary.Compute(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Summary computed successfully", sum, nil)
}

// UpdateSummary PUT /api/v1/reports/:id/summary
func (h *Handlers) UpdateSummary(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	var body struct {
		Retained           domain.FuelClassValues  `json:"retained"`
		Deferred           domain.FuelClassValues  `json:"deferred"`
		PreviouslyRetained *domain.FuelClassValues `json:"previously_retained"`
		AddedFromDeferral  *domain.FuelClassValues `json:"added_from_deferral"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid summary body", 400, nil)
	}
	sum, err := h.Summary.SetRetainedLines(c.Context(), id, body.Retained, body.Deferred, body.PreviouslyRetained, body.AddedFromDeferral)
	if err != nil {
		return err
	}
	return response.Success(c, "Summary updated successfully", sum, nil)
}

// AddFuelSupply POST /api/v1/reports/:id/fuel-supplies
func (h *Handlers) AddFuelSupply(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	var row domain.FuelSupply
	if err := c.BodyParser(&row); err != nil {
		return response.Error(c, "Invalid fuel supply body", 400, nil)
	}
	out, err := h.Service.AddFuelSupply(c.Context(), middleware.GetActor(c), id, row)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Fuel supply added successfully", out, nil)
}

// UpdateFuelSupply PUT /api/v1/reports/:id/fuel-supplies/:group
func (h *Handlers) UpdateFuelSupply(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	group, err := uuid.Parse(c.Params("group"))
	if err != nil {
		return response.Error(c, "Invalid group id", 400, nil)
	}
	var row domain.FuelSupply
	if err := c.BodyParser(&row); err != nil {
		return response.Error(c, "Invalid fuel supply body", 400, nil)
	}
	out, err := h.Service.UpdateFuelSupply(c.Context(), middleware.GetActor(c), id, group, row)
	if err != nil {
		return err
	}
	return response.Success(c, "Fuel supply updated successfully", out, nil)
}

// DeleteFuelSupply DELETE /api/v1/reports/:id/fuel-supplies/:group
func (h *Handlers) DeleteFuelSupply(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	group, err := uuid.Parse(c.Params("group"))
	if err != nil {
		return response.Error(c, "Invalid group id", 400, nil)
	}
	if err := h.Service.DeleteFuelSupply(c.Context(), middleware.GetActor(c), id, group); err != nil {
		return err
	}
	return response.Success(c, "Fuel supply removed successfully", fiber.Map{}, nil)
}

// AddFuelExport POST /api/v1/reports/:id/fuel-exports
func (h *Handlers) AddFuelExport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	var row domain.FuelExport
	if err := c.BodyParser(&row); err != nil {
		return response.Error(c, "Invalid fuel export body", 400, nil)
	}
	out, err := h.Service.AddFuelExport(c.Context(), middleware.GetActor(c), id, row)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Fuel export added successfully", out, nil)
}

// AddNotionalTransfer POST /api/v1/reports/:id/notional-transfers
func (h *Handlers) AddNotionalTransfer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	var row domain.NotionalTransfer
	if err := c.BodyParser(&row); err != nil {
		return response.Error(c, "Invalid notional transfer body", 400, nil)
	}
	out, err := h.Service.AddNotionalTransfer(c.Context(), middleware.GetActor(c), id, row)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Notional transfer added successfully", out, nil)
}

// AddOtherUse POST /api/v1/reports/:id/other-uses
func (h *Handlers) AddOtherUse(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	var row domain.OtherUse
	if err := c.BodyParser(&row); err != nil {
		return response.Error(c, "Invalid other use body", 400, nil)
	}
	out, err := h.Service.AddOtherUse(c.Context(), middleware.GetActor(c), id, row)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Fuel for other use added successfully", out, nil)
}

// AddAllocationAgreement POST /api/v1/reports/:id/allocation-agreements
func (h *Handlers) AddAllocationAgreement(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, "Invalid report id", 400, nil)
	}
	var row domain.AllocationAgreement
	if err := c.BodyParser(&row); err != nil {
		return response.Error(c, "Invalid allocation agreement body", 400, nil)
	}
	out, err := h.Service.AddAllocationAgreement(c.Context(), middleware.GetActor(c), id, row)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Allocation agreement added successfully", out, nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	return uint(id), err
}
