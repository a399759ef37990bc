package router

import (
	"net/http"

	adjsvc "lcfs-backend/internal/application/adjustments"
	"lcfs-backend/internal/application/balancecache"
	ledgersvc "lcfs-backend/internal/application/ledger"
	orgsvc "lcfs-backend/internal/application/org"
	outboxsvc "lcfs-backend/internal/application/outbox"
	queriessvc "lcfs-backend/internal/application/queries"
	reportsvc "lcfs-backend/internal/application/reports"
	summarysvc "lcfs-backend/internal/application/summary"
	transfersvc "lcfs-backend/internal/application/transfers"
	"lcfs-backend/internal/config"
	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/infrastructure/database"
	adjhandler "lcfs-backend/internal/interfaces/handlers/adjustments"
	authhandler "lcfs-backend/internal/interfaces/handlers/auth"
	healthhandler "lcfs-backend/internal/interfaces/handlers/health"
	orghandler "lcfs-backend/internal/interfaces/handlers/org"
	reporthandler "lcfs-backend/internal/interfaces/handlers/reports"
	txhandler "lcfs-backend/internal/interfaces/handlers/transactions"
	transferhandler "lcfs-backend/internal/interfaces/handlers/transfers"
	"lcfs-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:       cfg.SessionSecret,
		RedisURL:     cfg.RedisURL,
		IsProduction: cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL, cfg.StatementTimeout)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	ah := &authhandler.Handlers{DB: db, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil && rdb != nil {
		cache := &balancecache.Cache{Rdb: rdb}
		ledger := &ledgersvc.Service{DB: db}
		events := &outboxsvc.Service{}

		// Organizations
		os := &orgsvc.Service{DB: db, Ledger: ledger, Cache: cache}
		oh := &orghandler.Handlers{Service: os}
		og := app.Group("/api/v1/orgs", middleware.RequireAuth())
		og.Post("/", middleware.RequireGovernment(), middleware.RequireRoles(domain.RoleAdministrator), oh.CreateOrg)
		og.Get("/", oh.ListOrgs)
		og.Get("/:id", oh.ViewOrg)
		og.Patch("/:id/status", middleware.RequireGovernment(), middleware.RequireRoles(domain.RoleAdministrator), oh.UpdateStatus)

		// Transfers
		ts := &transfersvc.Service{DB: db, Ledger: ledger, Outbox: events, Cache: cache}
		th := &transferhandler.Handlers{Service: ts}
		tg := app.Group("/api/v1/transfers", middleware.RequireAuth())
		tg.Post("/", th.CreateTransfer)
		tg.Put("/:id", th.UpdateTransfer)
		tg.Post("/:id/transition", th.TransitionTransfer)
		tg.Get("/:id", th.ViewTransfer)

		// Compliance reports
		ss := &summarysvc.Service{DB: db, Ledger: ledger}
		rs := &reportsvc.Service{DB: db, Ledger: ledger, Summary: ss, Outbox: events, Cache: cache}
		rh := &reporthandler.Handlers{Service: rs, Summary: ss}
		rg := app.Group("/api/v1/reports", middleware.RequireAuth())
		rg.Post("/", rh.CreateReport)
		rg.Get("/:id", rh.ViewReport)
		rg.Get("/:id/chain", rh.ViewChain)
		rg.Post("/:id/supplemental", rh.CreateSupplemental)
		rg.Post("/:id/transition", rh.TransitionReport)
		rg.Get("/:id/summary", rh.ViewSummary)
		rg.Put("/:id/summary", rh.UpdateSummary)
		rg.Post("/:id/fuel-supplies", rh.AddFuelSupply)
		rg.Put("/:id/fuel-supplies/:group", rh.UpdateFuelSupply)
		rg.Delete("/:id/fuel-supplies/:group", rh.DeleteFuelSupply)
		rg.Post("/:id/fuel-exports", rh.AddFuelExport)
		rg.Post("/:id/notional-transfers", rh.AddNotionalTransfer)
		rg.Post("/:id/other-uses", rh.AddOtherUse)
		rg.Post("/:id/allocation-agreements", rh.AddAllocationAgreement)

		// Government issuances
		as := &adjsvc.Service{DB: db, Ledger: ledger, Outbox: events, Cache: cache}
		adh := &adjhandler.Handlers{Service: as}
		ag := app.Group("/api/v1/admin-adjustments", middleware.RequireAuth(), middleware.RequireGovernment())
		ag.Post("/", adh.CreateAdminAdjustment)
		ag.Post("/:id/transition", adh.TransitionAdminAdjustment)
		ag.Get("/:id", adh.ViewAdminAdjustment)
		ig := app.Group("/api/v1/initiative-agreements", middleware.RequireAuth(), middleware.RequireGovernment())
		ig.Post("/", adh.CreateInitiativeAgreement)
		ig.Post("/:id/transition", adh.TransitionInitiativeAgreement)
		ig.Get("/:id", adh.ViewInitiativeAgreement)

		// Cross-entity views
		qs := &queriessvc.Service{DB: db}
		qh := &txhandler.Handlers{Service: qs}
		qg := app.Group("/api/v1/transactions", middleware.RequireAuth())
		qg.Get("/", qh.GetTransactions)
		qg.Get("/credit-ledger", qh.GetCreditLedger)
		qg.Get("/reports", qh.GetReports)
		qg.Get("/counts", qh.GetCounts)
	}

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
