package org

import (
	"strconv"
	"time"

	orgsvc "lcfs-backend/internal/application/org"
	"lcfs-backend/internal/middleware"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles organization handlers with dependencies.
type Handlers struct {
	Service *orgsvc.Service
}

// CreateOrg POST /api/v1/orgs
func (h *Handlers) CreateOrg(c *fiber.Ctx) error {
	var body orgsvc.CreateOrgInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "name is required", 400, nil)
	}
	if body.Name == "" {
		return response.Error(c, "name is required", 400, nil)
	}

	org, err := h.Service.Create(c.Context(), middleware.GetActor(c), body)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Organization created successfully", org, nil)
}

// ListOrgs GET /api/v1/orgs
func (h *Handlers) ListOrgs(c *fiber.Ctx) error {
	orgs, err := h.Service.List(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, "Organizations fetched successfully", orgs, nil)
}

// ViewOrg GET /api/v1/orgs/:id
func (h *Handlers) ViewOrg(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	year := time.Now().Year()
	if y := c.QueryInt("year"); y > 0 {
		year = y
	}
	view, err := h.Service.Get(c.Context(), uint(id), year)
	if err != nil {
		return err
	}
	return response.Success(c, "Organization fetched successfully", view, nil)
}

// UpdateStatus PATCH /api/v1/orgs/:id/status
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", 400, nil)
	}
	org, err := h.Service.SetStatus(c.Context(), middleware.GetActor(c), uint(id), body.Status)
	if err != nil {
		return err
	}
	return response.Success(c, "Organization status updated", org, nil)
}
