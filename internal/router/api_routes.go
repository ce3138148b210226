package router

import (
	"accounting-admin/internal/handler"
	"accounting-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAPIRoutes(router fiber.Router, deps *Deps, h handlers) {
	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", h.auth.Login)
	auth.Post("/logout", h.auth.Logout)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(deps.Config, deps.WebSessions))

	// Auth routes
	protected.Get("/auth/me", h.auth.Me)

	// Bank account routes
	bankAccounts := protected.Group("/bank-accounts")
	bankAccounts.Get("/", h.bankAccounts.GetBankAccounts)
	bankAccounts.Get("/export", h.bankAccounts.ExportBankAccounts)
	bankAccounts.Get("/template", h.bankAccounts.DownloadTemplate)
	setupImportRoutes(bankAccounts.Group("/imports"), h.bankImports)
	bankAccounts.Get("/:id", h.bankAccounts.GetBankAccount)
	bankAccounts.Post("/", h.bankAccounts.CreateBankAccount)
	bankAccounts.Put("/:id", h.bankAccounts.UpdateBankAccount)
	bankAccounts.Delete("/:id", middleware.AdminOnly(), h.bankAccounts.DeleteBankAccount)

	// Cost object routes
	costObjects := protected.Group("/cost-objects")
	costObjects.Get("/", h.costObjects.GetCostObjects)
	costObjects.Get("/export", h.costObjects.ExportCostObjects)
	costObjects.Get("/template", h.costObjects.DownloadTemplate)
	setupImportRoutes(costObjects.Group("/imports"), h.costImports)
	costObjects.Get("/:id", h.costObjects.GetCostObject)
	costObjects.Post("/", h.costObjects.CreateCostObject)
	costObjects.Put("/:id", h.costObjects.UpdateCostObject)
	costObjects.Delete("/:id", middleware.AdminOnly(), h.costObjects.DeleteCostObject)
}

// setupImportRoutes registers the import wizard of one dataset
func setupImportRoutes(imports fiber.Router, h *handler.ImportHandler) {
	imports.Post("/", h.StartImport)
	imports.Get("/:id", h.GetImport)
	imports.Post("/:id/file", h.UploadFile)
	imports.Put("/:id/sheet", h.ChooseSheet)
	imports.Post("/:id/mapping/next", h.NextToMapping)
	imports.Put("/:id/mapping", h.SetMapping)
	imports.Put("/:id/method", h.SetMethod)
	imports.Post("/:id/review", h.Review)
	imports.Post("/:id/back", h.Back)
	imports.Put("/:id/selection", h.Select)
	imports.Post("/:id/commit", h.Commit)
	imports.Get("/:id/error-report", h.DownloadErrorReport)
	imports.Delete("/:id", h.Discard)
}
