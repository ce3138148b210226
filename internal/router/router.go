package router

import (
	"accounting-admin/internal/handler"
	"accounting-admin/internal/middleware"
	"accounting-admin/internal/models"
	"accounting-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

// handlers built once and shared by the web and API routes
type handlers struct {
	auth         *handler.AuthHandler
	web          *handler.WebHandler
	bankAccounts *handler.BankAccountHandler
	costObjects  *handler.CostObjectHandler
	bankImports  *handler.ImportHandler
	costImports  *handler.ImportHandler
}

func newHandlers(deps *Deps) handlers {
	datasets := service.NewDatasetRegistry(
		service.NewBankAccountDataset(deps.BankAccounts),
		service.NewCostObjectDataset(deps.CostObjects),
	)

	authService := service.NewAuthService(deps.Users, deps.Config)
	excelService := service.NewExcelService(datasets)
	importService := service.NewImportService(datasets, deps.Sessions, deps.Queue, service.ImportOptions{
		MaxRows:        deps.Config.ImportMaxRows,
		AsyncThreshold: deps.Config.ImportAsyncThreshold,
	}, deps.Logger)

	return handlers{
		auth:         handler.NewAuthHandler(authService, deps.WebSessions),
		web:          handler.NewWebHandler(deps.BankAccounts, deps.CostObjects, datasets),
		bankAccounts: handler.NewBankAccountHandler(deps.BankAccounts, excelService),
		costObjects:  handler.NewCostObjectHandler(deps.CostObjects, excelService),
		bankImports:  handler.NewImportHandler(importService, models.DatasetBankAccounts),
		costImports:  handler.NewImportHandler(importService, models.DatasetCostObjects),
	}
}

func Setup(app *fiber.App, deps *Deps) {
	h := newHandlers(deps)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    deps.Config.AppName,
		})
	})

	// Web routes (HTML)
	web := app.Group("")
	setupWebRoutes(web, deps, h)

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, deps, h)
}

func setupWebRoutes(router fiber.Router, deps *Deps, h handlers) {
	// Authentication pages
	router.Get("/login", middleware.GuestMiddleware(deps.WebSessions), h.auth.LoginPage)
	router.Post("/login", h.auth.WebLogin)
	router.Post("/logout", h.auth.WebLogout)

	// Pages are protected per route; a group middleware on "" would also catch /api
	requireLogin := middleware.WebAuthMiddleware(deps.WebSessions)
	router.Get("/", requireLogin, h.web.Dashboard)

	// Master data pages
	router.Get("/bank-accounts", requireLogin, h.web.BankAccounts)
	router.Get("/cost-objects", requireLogin, h.web.CostObjects)
}
