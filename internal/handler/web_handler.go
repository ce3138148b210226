package handler

import (
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/service"
	"accounting-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// WebHandler renders the HTML pages. Data is loaded by the pages through the API.
type WebHandler struct {
	bankAccounts repository.BankAccountStore
	costObjects  repository.CostObjectStore
	datasets     service.DatasetRegistry
}

func NewWebHandler(bankAccounts repository.BankAccountStore, costObjects repository.CostObjectStore, datasets service.DatasetRegistry) *WebHandler {
	return &WebHandler{
		bankAccounts: bankAccounts,
		costObjects:  costObjects,
		datasets:     datasets,
	}
}

func (h *WebHandler) Dashboard(c *fiber.Ctx) error {
	_, accounts, err := h.bankAccounts.FindAll(c.UserContext(), 1, 0, "")
	if err != nil {
		utils.GetLogger().WithError(err).Warn("Failed to count bank accounts")
	}
	_, objects, err := h.costObjects.FindAll(c.UserContext(), 1, 0, "")
	if err != nil {
		utils.GetLogger().WithError(err).Warn("Failed to count cost objects")
	}

	return c.Render("dashboard/index", fiber.Map{
		"Title":            "Dashboard",
		"Username":         c.Locals("username"),
		"BankAccountCount": accounts,
		"CostObjectCount":  objects,
	})
}

func (h *WebHandler) BankAccounts(c *fiber.Ctx) error {
	return h.datasetPage(c, models.DatasetBankAccounts, "bank-accounts", "account_number")
}

func (h *WebHandler) CostObjects(c *fiber.Ctx) error {
	return h.datasetPage(c, models.DatasetCostObjects, "cost-objects", "code")
}

// datasetPage renders the list and import wizard. keyColumn is the JSON name
// of the field the import schema calls "code".
func (h *WebHandler) datasetPage(c *fiber.Ctx, dataset, path, keyColumn string) error {
	ds, err := h.datasets.Get(dataset)
	if err != nil {
		return fiber.ErrNotFound
	}

	return c.Render("master/dataset", fiber.Map{
		"Title":     ds.Title(),
		"Username":  c.Locals("username"),
		"APIPath":   "/api/v1/" + path,
		"KeyColumn": keyColumn,
		"Fields":    ds.Schema().Fields,
		"Limits":    utils.GetLimitOptions(),
	})
}
