package transactions

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	queriessvc "lcfs-backend/internal/application/queries"
	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTxApp(t *testing.T, user *middleware.SessionUser) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Organization{}, &domain.Transaction{}, &domain.Transfer{},
		&domain.TransferStatusVisibility{}, &domain.AdminAdjustment{},
		&domain.InitiativeAgreement{}, &domain.ComplianceReport{},
	))
	h := &Handlers{Service: &queriessvc.Service{DB: db}}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	g := app.Group("/api/v1/transactions", middleware.RequireAuth())
	g.Get("/", h.GetTransactions)
	g.Get("/credit-ledger", h.GetCreditLedger)
	g.Get("/reports", h.GetReports)
	g.Get("/counts", h.GetCounts)
	return app, db
}

func TestGetCreditLedger_GovernmentNeedsOrgID(t *testing.T) {
	app, _ := setupTxApp(t, &middleware.SessionUser{UserID: 9, Roles: []string{domain.RoleAnalyst}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/transactions/credit-ledger", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestGetCreditLedger_SupplierScopedToOwnOrg(t *testing.T) {
	orgID := uint(0)
	user := &middleware.SessionUser{UserID: 1, Roles: []string{domain.RoleSupplier}}
	app, db := setupTxApp(t, user)

	mine := &domain.Organization{Name: "Acme Fuels", Code: "AAAAA", Status: domain.OrgStatusRegistered}
	other := &domain.Organization{Name: "Borealis Energy", Code: "AAAAB", Status: domain.OrgStatusRegistered}
	require.NoError(t, db.Create(mine).Error)
	require.NoError(t, db.Create(other).Error)
	orgID = mine.ID
	user.OrgID = &orgID

	require.NoError(t, db.Create(&domain.Transaction{OrganizationID: mine.ID, ComplianceUnits: 500, Action: domain.ActionAdjustment}).Error)
	require.NoError(t, db.Create(&domain.Transaction{OrganizationID: other.ID, ComplianceUnits: 900, Action: domain.ActionAdjustment}).Error)

	// The supplier's own org is used even when another org is requested.
	req := httptest.NewRequest("GET", "/api/v1/transactions/credit-ledger?org_id=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var payload struct {
		Data []struct {
			ComplianceUnits  int64 `json:"compliance_units"`
			AvailableBalance int64 `json:"available_balance"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, int64(500), payload.Data[0].ComplianceUnits)
	assert.Equal(t, int64(500), payload.Data[0].AvailableBalance)
}

func TestGetCounts_EmptyBoard(t *testing.T) {
	app, _ := setupTxApp(t, &middleware.SessionUser{UserID: 9, Roles: []string{domain.RoleAnalyst}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/transactions/counts", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var payload struct {
		Data struct {
			InProgress     int64 `json:"in_progress"`
			AwaitingReview int64 `json:"awaiting_review"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Zero(t, payload.Data.InProgress)
	assert.Zero(t, payload.Data.AwaitingReview)
}

func TestGetTransactions_RequiresAuth(t *testing.T) {
	app, _ := setupTxApp(t, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/transactions/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
