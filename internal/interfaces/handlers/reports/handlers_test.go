package reports

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/application/outbox"
	reportsvc "lcfs-backend/internal/application/reports"
	summarysvc "lcfs-backend/internal/application/summary"
	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReportApp(t *testing.T, user *middleware.SessionUser) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Organization{}, &domain.OrganizationAddress{}, &domain.Transaction{},
		&domain.ComplianceReport{}, &domain.ComplianceReportHistory{},
		&domain.ComplianceReportSummary{}, &domain.OrganizationSnapshot{},
		&domain.FuelSupply{}, &domain.FuelExport{}, &domain.NotionalTransfer{},
		&domain.OtherUse{}, &domain.AllocationAgreement{},
		&domain.FuelType{}, &domain.FuelCategory{}, &domain.EndUseType{},
		&domain.EnergyEffectivenessRatio{}, &domain.AdditionalCarbonIntensity{},
		&domain.TargetCarbonIntensity{}, &domain.FuelCode{}, &domain.ProvisionOfTheAct{},
		&domain.OutboxEvent{},
	))
	led := &ledger.Service{DB: db}
	sum := &summarysvc.Service{DB: db, Ledger: led}
	svc := &reportsvc.Service{DB: db, Ledger: led, Summary: sum, Outbox: &outbox.Service{}}
	h := &Handlers{Service: svc, Summary: sum}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	g := app.Group("/api/v1/reports", middleware.RequireAuth())
	g.Post("/", h.CreateReport)
	g.Get("/:id", h.ViewReport)
	g.Get("/:id/summary", h.ViewSummary)
	return app, db
}

func TestCreateReport_Original(t *testing.T) {
	orgID := uint(0)
	user := &middleware.SessionUser{UserID: 1, Roles: []string{domain.RoleSupplier}}
	app, db := setupReportApp(t, user)
	org := &domain.Organization{Name: "Acme Fuels", Code: "AAAAA", Status: domain.OrgStatusRegistered}
	require.NoError(t, db.Create(org).Error)
	orgID = org.ID
	user.OrgID = &orgID

	body, _ := json.Marshal(fiber.Map{"organization_id": org.ID, "compliance_period": 2025})
	req := httptest.NewRequest("POST", "/api/v1/reports/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var report domain.ComplianceReport
	require.NoError(t, db.First(&report).Error)
	assert.Equal(t, 0, report.Version)
	assert.Equal(t, domain.ReportDraft, report.CurrentStatus)
}

func TestCreateReport_DuplicatePeriodConflicts(t *testing.T) {
	orgID := uint(0)
	user := &middleware.SessionUser{UserID: 1, Roles: []string{domain.RoleSupplier}}
	app, db := setupReportApp(t, user)
	org := &domain.Organization{Name: "Acme Fuels", Code: "AAAAA", Status: domain.OrgStatusRegistered}
	require.NoError(t, db.Create(org).Error)
	orgID = org.ID
	user.OrgID = &orgID

	body, _ := json.Marshal(fiber.Map{"organization_id": org.ID, "compliance_period": 2025})
	req := httptest.NewRequest("POST", "/api/v1/reports/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/v1/reports/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestViewReport_MissingBody(t *testing.T) {
	orgID := uint(1)
	app, _ := setupReportApp(t, &middleware.SessionUser{UserID: 1, OrgID: &orgID})

	body := `{"compliance_period": 0}`
	req := httptest.NewRequest("POST", "/api/v1/reports/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
