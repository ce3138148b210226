package handler

import (
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/service"
	"accounting-admin/internal/utils"
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	errParentNotFound = errors.New("parent object does not exist")
	errParentCycle    = errors.New("parent object cannot be the object itself or one of its descendants")
)

type CostObjectHandler struct {
	store        repository.CostObjectStore
	excelService *service.ExcelService
}

func NewCostObjectHandler(store repository.CostObjectStore, excelService *service.ExcelService) *CostObjectHandler {
	return &CostObjectHandler{
		store:        store,
		excelService: excelService,
	}
}

func (h *CostObjectHandler) GetCostObjects(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := params.Offset()

	objects, total, err := h.store.FindAll(c.UserContext(), params.Limit, offset, params.Search)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve cost objects", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Cost objects retrieved successfully", objects, pagination)
}

func (h *CostObjectHandler) GetCostObject(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cost object ID", err)
	}

	obj, err := h.store.FindByID(c.UserContext(), id)
	if err != nil {
		return storeErrorResponse(c, "Cost object", err)
	}

	return utils.SuccessResponse(c, "Cost object retrieved successfully", obj)
}

func (h *CostObjectHandler) CreateCostObject(c *fiber.Ctx) error {
	var req models.CostObjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	if err := h.checkParent(c.UserContext(), 0, req.ParentID); err != nil {
		return parentErrorResponse(c, err)
	}

	obj := &models.CostObject{IsActive: true}
	req.Apply(obj)

	if err := h.store.Create(c.UserContext(), obj); err != nil {
		return storeErrorResponse(c, "Cost object", err)
	}

	return utils.CreatedResponse(c, "Cost object created successfully", obj)
}

func (h *CostObjectHandler) UpdateCostObject(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cost object ID", err)
	}

	var req models.CostObjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	obj, err := h.store.FindByID(c.UserContext(), id)
	if err != nil {
		return storeErrorResponse(c, "Cost object", err)
	}

	if err := h.checkParent(c.UserContext(), id, req.ParentID); err != nil {
		return parentErrorResponse(c, err)
	}

	req.Apply(obj)
	if err := h.store.Update(c.UserContext(), obj); err != nil {
		return storeErrorResponse(c, "Cost object", err)
	}

	return utils.SuccessResponse(c, "Cost object updated successfully", obj)
}

func (h *CostObjectHandler) DeleteCostObject(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid cost object ID", err)
	}

	hasChildren, err := h.store.HasChildren(c.UserContext(), id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete cost object", err)
	}
	if hasChildren {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Cost object has child objects and cannot be deleted", nil)
	}

	if err := h.store.Delete(c.UserContext(), id); err != nil {
		return storeErrorResponse(c, "Cost object", err)
	}

	return utils.SuccessResponse(c, "Cost object deleted successfully", nil)
}

func (h *CostObjectHandler) ExportCostObjects(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.excelService.Export(c.UserContext(), models.DatasetCostObjects, &buf); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export cost objects", err)
	}
	return sendWorkbook(c, service.ExportFileName(models.DatasetCostObjects, time.Now()), buf.Bytes())
}

func (h *CostObjectHandler) DownloadTemplate(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.excelService.Template(models.DatasetCostObjects, &buf); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate template", err)
	}
	return sendWorkbook(c, service.TemplateFileName(models.DatasetCostObjects), buf.Bytes())
}

// checkParent walks up from parentID. id is 0 for objects not stored yet.
func (h *CostObjectHandler) checkParent(ctx context.Context, id, parentID int) error {
	seen := map[int]bool{}
	for current := parentID; current != 0; {
		if current == id || seen[current] {
			return errParentCycle
		}
		seen[current] = true

		parent, err := h.store.FindByID(ctx, current)
		if errors.Is(err, repository.ErrNotFound) {
			if current == parentID {
				return errParentNotFound
			}
			return nil
		}
		if err != nil {
			return err
		}
		current = parent.ParentID
	}
	return nil
}

func parentErrorResponse(c *fiber.Ctx, err error) error {
	if errors.Is(err, errParentNotFound) || errors.Is(err, errParentCycle) {
		return utils.ValidationErrorResponse(c, []string{err.Error()})
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check parent object", err)
}
