package transactions

import (
	queriessvc "lcfs-backend/internal/application/queries"
	"lcfs-backend/internal/middleware"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the cross-entity transaction and report views.
type Handlers struct {
	Service *queriessvc.Service
}

// GetCreditLedger GET /api/v1/transactions/credit-ledger
// Suppliers see their own organization; government passes ?org_id=N.
func (h *Handlers) GetCreditLedger(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	orgID := uint(c.QueryInt("org_id"))
	if actor.OrganizationID != nil {
		orgID = *actor.OrganizationID
	}
	if orgID == 0 {
		return response.Error(c, "org_id is required", 400, nil)
	}
	rows, err := h.Service.CreditLedger(c.Context(), orgID)
	if err != nil {
		return err
	}
	return response.Success(c, "Credit ledger fetched successfully", rows, nil)
}

// GetTransactions GET /api/v1/transactions
func (h *Handlers) GetTransactions(c *fiber.Ctx) error {
	rows, err := h.Service.Transactions(c.Context(), middleware.GetActor(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Transactions fetched successfully", rows, nil)
}

// GetReports GET /api/v1/transactions/reports?status=...
func (h *Handlers) GetReports(c *fiber.Ctx) error {
	rows, err := h.Service.Reports(c.Context(), middleware.GetActor(c), c.Query("status"))
	if err != nil {
		return err
	}
	return response.Success(c, "Reports fetched successfully", rows, nil)
}

// GetCounts GET /api/v1/transactions/counts
func (h *Handlers) GetCounts(c *fiber.Ctx) error {
	counts, err := h.Service.Counts(c.Context(), middleware.GetActor(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Counts fetched successfully", counts, nil)
}
