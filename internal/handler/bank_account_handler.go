package handler

import (
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/service"
	"accounting-admin/internal/utils"
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

type BankAccountHandler struct {
	store        repository.BankAccountStore
	excelService *service.ExcelService
}

func NewBankAccountHandler(store repository.BankAccountStore, excelService *service.ExcelService) *BankAccountHandler {
	return &BankAccountHandler{
		store:        store,
		excelService: excelService,
	}
}

func (h *BankAccountHandler) GetBankAccounts(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := params.Offset()

	accounts, total, err := h.store.FindAll(c.UserContext(), params.Limit, offset, params.Search)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve bank accounts", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Bank accounts retrieved successfully", accounts, pagination)
}

func (h *BankAccountHandler) GetBankAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid bank account ID", err)
	}

	account, err := h.store.FindByID(c.UserContext(), id)
	if err != nil {
		return storeErrorResponse(c, "Bank account", err)
	}

	return utils.SuccessResponse(c, "Bank account retrieved successfully", account)
}

func (h *BankAccountHandler) CreateBankAccount(c *fiber.Ctx) error {
	var req models.BankAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	account := &models.BankAccount{IsActive: true}
	req.Apply(account)

	if err := h.store.Create(c.UserContext(), account); err != nil {
		return storeErrorResponse(c, "Bank account", err)
	}

	return utils.CreatedResponse(c, "Bank account created successfully", account)
}

func (h *BankAccountHandler) UpdateBankAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid bank account ID", err)
	}

	var req models.BankAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	account, err := h.store.FindByID(c.UserContext(), id)
	if err != nil {
		return storeErrorResponse(c, "Bank account", err)
	}

	req.Apply(account)
	if err := h.store.Update(c.UserContext(), account); err != nil {
		return storeErrorResponse(c, "Bank account", err)
	}

	return utils.SuccessResponse(c, "Bank account updated successfully", account)
}

func (h *BankAccountHandler) DeleteBankAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid bank account ID", err)
	}

	if err := h.store.Delete(c.UserContext(), id); err != nil {
		return storeErrorResponse(c, "Bank account", err)
	}

	return utils.SuccessResponse(c, "Bank account deleted successfully", nil)
}

func (h *BankAccountHandler) ExportBankAccounts(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.excelService.Export(c.UserContext(), models.DatasetBankAccounts, &buf); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export bank accounts", err)
	}
	return sendWorkbook(c, service.ExportFileName(models.DatasetBankAccounts, time.Now()), buf.Bytes())
}

func (h *BankAccountHandler) DownloadTemplate(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.excelService.Template(models.DatasetBankAccounts, &buf); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate template", err)
	}
	return sendWorkbook(c, service.TemplateFileName(models.DatasetBankAccounts), buf.Bytes())
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
)

func sendWorkbook(c *fiber.Ctx, fileName string, data []byte) error {
	return sendAttachment(c, fileName, xlsxContentType, data)
}

func sendAttachment(c *fiber.Ctx, fileName, contentType string, data []byte) error {
	c.Attachment(fileName)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// storeErrorResponse maps repository sentinels to status codes
func storeErrorResponse(c *fiber.Ctx, entity string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, entity+" not found", err)
	case errors.Is(err, repository.ErrDuplicateCode):
		return utils.ErrorResponse(c, fiber.StatusConflict, entity+" code already exists", err)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process "+entity, err)
	}
}
