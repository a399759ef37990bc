package org

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"lcfs-backend/internal/application/ledger"
	orgsvc "lcfs-backend/internal/application/org"
	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrgApp(t *testing.T, user *middleware.SessionUser) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Organization{}, &domain.OrganizationAddress{}, &domain.Transaction{},
	))
	svc := &orgsvc.Service{DB: db, Ledger: &ledger.Service{DB: db}}
	h := &Handlers{Service: svc}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	g := app.Group("/api/v1/orgs", middleware.RequireAuth())
	g.Post("/", middleware.RequireGovernment(), middleware.RequireRoles(domain.RoleAdministrator), h.CreateOrg)
	g.Get("/", h.ListOrgs)
	g.Get("/:id", h.ViewOrg)
	g.Patch("/:id/status", middleware.RequireGovernment(), middleware.RequireRoles(domain.RoleAdministrator), h.UpdateStatus)
	return app, db
}

func govAdmin() *middleware.SessionUser {
	return &middleware.SessionUser{UserID: 9, FullName: "Gov Admin", Roles: []string{domain.RoleAdministrator}}
}

func TestCreateOrg_AsGovernmentAdmin(t *testing.T) {
	app, db := setupOrgApp(t, govAdmin())

	body, _ := json.Marshal(fiber.Map{"name": "Acme Fuels", "status": domain.OrgStatusRegistered})
	req := httptest.NewRequest("POST", "/api/v1/orgs/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var org domain.Organization
	require.NoError(t, db.First(&org).Error)
	assert.Equal(t, "Acme Fuels", org.Name)
	assert.Len(t, org.Code, 5)
}

func TestCreateOrg_SupplierForbidden(t *testing.T) {
	orgID := uint(1)
	app, _ := setupOrgApp(t, &middleware.SessionUser{UserID: 2, OrgID: &orgID, Roles: []string{domain.RoleSupplier}})

	body := `{"name": "Sneaky Fuels"}`
	req := httptest.NewRequest("POST", "/api/v1/orgs/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestViewOrg_ReturnsBalances(t *testing.T) {
	app, db := setupOrgApp(t, govAdmin())
	org := &domain.Organization{Name: "Acme Fuels", Code: "AAAAA", Status: domain.OrgStatusRegistered, TotalBalance: 320}
	require.NoError(t, db.Create(org).Error)

	req := httptest.NewRequest("GET", "/api/v1/orgs/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var payload struct {
		Data struct {
			TotalBalance int64 `json:"total_balance"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, int64(320), payload.Data.TotalBalance)
}

func TestViewOrg_NotFound(t *testing.T) {
	app, _ := setupOrgApp(t, govAdmin())
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/orgs/42", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestUpdateStatus_Suspend(t *testing.T) {
	app, db := setupOrgApp(t, govAdmin())
	org := &domain.Organization{Name: "Acme Fuels", Code: "AAAAA", Status: domain.OrgStatusRegistered}
	require.NoError(t, db.Create(org).Error)

	req := httptest.NewRequest("PATCH", "/api/v1/orgs/1/status", bytes.NewBufferString(`{"status":"Suspended"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var got domain.Organization
	require.NoError(t, db.First(&got, org.ID).Error)
	assert.Equal(t, domain.OrgStatusSuspended, got.Status)
}
