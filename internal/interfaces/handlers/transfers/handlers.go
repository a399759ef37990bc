package transfers

import (
	"strconv"
	"time"

	transfersvc "lcfs-backend/internal/application/transfers"
	"lcfs-backend/internal/middleware"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handlers bundles transfer handlers with dependencies.
type Handlers struct {
	Service *transfersvc.Service
}

type transferRequest struct {
	ToOrganizationID uint            `json:"to_organization_id"`
	Quantity         int64           `json:"quantity"`
	PricePerUnit     decimal.Decimal `json:"price_per_unit"`
	AgreementDate    string          `json:"agreement_date"`
	Comment          string          `json:"comment"`
}

func (r *transferRequest) toInput() (transfersvc.CreateTransferInput, error) {
	in := transfersvc.CreateTransferInput{
		ToOrganizationID: r.ToOrganizationID,
		Quantity:         r.Quantity,
		PricePerUnit:     r.PricePerUnit,
		Comment:          r.Comment,
	}
	if r.AgreementDate != "" {
		d, err := time.Parse("2006-01-02", r.AgreementDate)
		if err != nil {
			return in, err
		}
		in.AgreementDate = d
	}
	return in, nil
}

// CreateTransfer POST /api/v1/transfers
func (h *Handlers) CreateTransfer(c *fiber.Ctx) error {
	var body transferRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "to_organization_id and quantity are required", 400, nil)
	}
	in, err := body.toInput()
	if err != nil {
		return response.Error(c, "agreement_date must be YYYY-MM-DD", 400, nil)
	}
	t, err := h.Service.Create(c.Context(), middleware.GetActor(c), in)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Transfer created successfully", t, nil)
}

// UpdateTransfer PUT /api/v1/transfers/:id
func (h *Handlers) UpdateTransfer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid transfer id", 400, nil)
	}
	var body transferRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "to_organization_id and quantity are required", 400, nil)
	}
	in, err := body.toInput()
	if err != nil {
		return response.Error(c, "agreement_date must be YYYY-MM-DD", 400, nil)
	}
	t, err := h.Service.UpdateDraft(c.Context(), middleware.GetActor(c), id, in)
	if err != nil {
		return err
	}
	return response.Success(c, "Transfer updated successfully", t, nil)
}

// TransitionTransfer POST /api/v1/transfers/:id/transition
func (h *Handlers) TransitionTransfer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid transfer id", 400, nil)
	}
	var body struct {
		Status          string `json:"status"`
		Recommendation  string `json:"recommendation"`
		Comment         string `json:"comment"`
		CommentAudience string `json:"comment_audience"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", 400, nil)
	}
	t, err := h.Service.Transition(c.Context(), middleware.GetActor(c), id, body.Status, transfersvc.TransitionOptions{
		Recommendation:  body.Recommendation,
		Comment:         body.Comment,
		CommentAudience: body.CommentAudience,
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Transfer updated successfully", t, nil)
}

// ViewTransfer GET /api/v1/transfers/:id
func (h *Handlers) ViewTransfer(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid transfer id", 400, nil)
	}
	t, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Transfer fetched successfully", t, nil)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	return uint(id), err
}
