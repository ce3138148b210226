package handler

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/service"
	"accounting-admin/internal/utils"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
)

// ImportHandler serves the import wizard of one dataset.
type ImportHandler struct {
	importService *service.ImportService
	dataset       string
}

func NewImportHandler(importService *service.ImportService, dataset string) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		dataset:       dataset,
	}
}

// requestContext carries the authenticated user into the import service.
func requestContext(c *fiber.Ctx) context.Context {
	username, _ := c.Locals("username").(string)
	return service.WithRequester(c.UserContext(), username)
}

type chooseSheetRequest struct {
	Sheet     string `json:"sheet" validate:"required"`
	HeaderRow int    `json:"header_row" validate:"required,min=1"`
}

type mappingRequest struct {
	Mappings map[string]string `json:"mappings" validate:"required"`
}

type methodRequest struct {
	Method string `json:"method" validate:"required"`
}

type selectionRequest struct {
	Mode   importer.SelectionMode `json:"mode"`
	Toggle []int                  `json:"toggle"`
}

// sessionView is the JSON shape of a wizard session
type sessionView struct {
	ID              string                      `json:"id"`
	Dataset         string                      `json:"dataset"`
	Step            importer.Step               `json:"step"`
	FileName        string                      `json:"file_name"`
	Sheets          []string                    `json:"sheets"`
	Sheet           string                      `json:"sheet"`
	HeaderRow       int                         `json:"header_row"`
	Columns         []string                    `json:"columns"`
	RowCount        int                         `json:"row_count"`
	Method          importer.ImportMethod       `json:"method"`
	Fields          []importer.FieldSpec        `json:"fields"`
	Mappings        []importer.ColumnMapping    `json:"mappings"`
	MissingMappings []string                    `json:"missing_mappings"`
	MappingComplete bool                        `json:"mapping_complete"`
	Results         []importer.ValidationResult `json:"results,omitempty"`
	SelectedRows    []int                       `json:"selected_rows"`
	Summary         *reviewSummary              `json:"summary,omitempty"`
}

type reviewSummary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Selected int `json:"selected"`
}

func newSessionView(s *importer.Session) sessionView {
	view := sessionView{
		ID:              s.ID,
		Dataset:         s.Dataset,
		Step:            s.Step,
		FileName:        s.FileName,
		Sheets:          s.Sheets,
		Sheet:           s.Sheet,
		HeaderRow:       s.HeaderRow,
		Columns:         s.Columns(),
		RowCount:        s.RowCount(),
		Method:          s.Method,
		Fields:          s.Schema().Fields,
		Mappings:        s.Mappings,
		MissingMappings: s.MissingMappings(),
		MappingComplete: s.MappingComplete(),
		SelectedRows:    s.SelectedRows,
	}

	if s.Step == importer.StepReview {
		results := s.Results()
		valid, invalid := importer.Summarize(results)
		view.Results = results
		view.Summary = &reviewSummary{
			Total:    len(results),
			Valid:    valid,
			Invalid:  invalid,
			Selected: len(s.SelectedRecords()),
		}
	}
	return view
}

func (h *ImportHandler) respond(c *fiber.Ctx, message string, session *importer.Session, err error) error {
	if err != nil {
		return importErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, message, newSessionView(session))
}

// StartImport opens a session. A multipart file, when present, is loaded right away.
func (h *ImportHandler) StartImport(c *fiber.Ctx) error {
	session, err := h.importService.Start(requestContext(c), h.dataset)
	if err != nil {
		return importErrorResponse(c, err)
	}

	if _, ferr := c.FormFile("file"); ferr == nil {
		name, data, err := readUpload(c)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", err)
		}
		loaded, err := h.importService.UploadFile(requestContext(c), h.dataset, session.ID, name, data)
		if err != nil {
			_ = h.importService.Discard(requestContext(c), h.dataset, session.ID)
			return importErrorResponse(c, err)
		}
		session = loaded
	}

	return utils.CreatedResponse(c, "Import session started", newSessionView(session))
}

func (h *ImportHandler) UploadFile(c *fiber.Ctx) error {
	name, data, err := readUpload(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}

	session, err := h.importService.UploadFile(requestContext(c), h.dataset, c.Params("id"), name, data)
	return h.respond(c, "File loaded", session, err)
}

func (h *ImportHandler) GetImport(c *fiber.Ctx) error {
	session, err := h.importService.Get(requestContext(c), h.dataset, c.Params("id"))
	return h.respond(c, "Import session retrieved", session, err)
}

func (h *ImportHandler) ChooseSheet(c *fiber.Ctx) error {
	var req chooseSheetRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	session, err := h.importService.ChooseSheet(requestContext(c), h.dataset, c.Params("id"), req.Sheet, req.HeaderRow)
	return h.respond(c, "Sheet selected", session, err)
}

func (h *ImportHandler) NextToMapping(c *fiber.Ctx) error {
	session, err := h.importService.NextToMapping(requestContext(c), h.dataset, c.Params("id"))
	return h.respond(c, "Columns mapped automatically", session, err)
}

func (h *ImportHandler) SetMapping(c *fiber.Ctx) error {
	var req mappingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	session, err := h.importService.SetMapping(requestContext(c), h.dataset, c.Params("id"), req.Mappings)
	return h.respond(c, "Column mapping updated", session, err)
}

func (h *ImportHandler) SetMethod(c *fiber.Ctx) error {
	var req methodRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ValidationErrorResponse(c, errs)
	}

	session, err := h.importService.SetMethod(requestContext(c), h.dataset, c.Params("id"), req.Method)
	return h.respond(c, "Import method updated", session, err)
}

func (h *ImportHandler) Review(c *fiber.Ctx) error {
	session, err := h.importService.Review(requestContext(c), h.dataset, c.Params("id"))
	return h.respond(c, "Rows validated", session, err)
}

func (h *ImportHandler) Back(c *fiber.Ctx) error {
	session, err := h.importService.Back(requestContext(c), h.dataset, c.Params("id"))
	return h.respond(c, "Moved back one step", session, err)
}

func (h *ImportHandler) Select(c *fiber.Ctx) error {
	var req selectionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	session, err := h.importService.Select(requestContext(c), h.dataset, c.Params("id"), req.Mode, req.Toggle)
	return h.respond(c, "Selection updated", session, err)
}

func (h *ImportHandler) Commit(c *fiber.Ctx) error {
	summary, err := h.importService.Commit(requestContext(c), h.dataset, c.Params("id"))
	if err != nil {
		return importErrorResponse(c, err)
	}

	if summary.Queued {
		return c.Status(fiber.StatusAccepted).JSON(utils.Response{
			Success: true,
			Message: "Import queued for background processing",
			Data:    summary,
		})
	}

	message := fmt.Sprintf("Import completed: %d inserted, %d updated", summary.Inserted, summary.Updated)
	if summary.Deleted > 0 {
		message += fmt.Sprintf(", %d deleted", summary.Deleted)
	}
	return utils.SuccessResponse(c, message, summary)
}

func (h *ImportHandler) DownloadErrorReport(c *fiber.Ctx) error {
	format := c.Query("format", "xlsx")
	if format != "xlsx" && format != "csv" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Format must be xlsx or csv", nil)
	}

	var buf bytes.Buffer
	if err := h.importService.ErrorReport(requestContext(c), h.dataset, c.Params("id"), format, &buf); err != nil {
		return importErrorResponse(c, err)
	}

	fileName := service.ErrorReportFileName(h.dataset, format)
	if format == "csv" {
		return sendAttachment(c, fileName, csvContentType, buf.Bytes())
	}
	return sendWorkbook(c, fileName, buf.Bytes())
}

func (h *ImportHandler) Discard(c *fiber.Ctx) error {
	if err := h.importService.Discard(requestContext(c), h.dataset, c.Params("id")); err != nil {
		return importErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, "Import session discarded", nil)
}

func readUpload(c *fiber.Ctx) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, err
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

// importErrorResponse maps wizard errors to a single blocking message
func importErrorResponse(c *fiber.Ctx, err error) error {
	var (
		fileErr    *importer.FileReadError
		mappingErr *importer.IncompleteMappingError
		stepErr    *importer.StepError
	)

	switch {
	case errors.Is(err, importer.ErrSessionNotFound), errors.Is(err, service.ErrUnknownDataset):
		return utils.ErrorResponse(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.As(err, &fileErr):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "The file could not be read as an Excel workbook", err)
	case errors.As(err, &mappingErr):
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response{
			Success: false,
			Message: err.Error(),
			Data:    fiber.Map{"missing": mappingErr.Missing},
		})
	case errors.As(err, &stepErr),
		errors.Is(err, importer.ErrNothingToCommit):
		return utils.ErrorResponse(c, fiber.StatusConflict, err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicateCode),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, importer.ErrParentCycle):
		return utils.ErrorResponse(c, fiber.StatusConflict, "The dataset changed since the import was reviewed, nothing was imported", err)
	case errors.Is(err, importer.ErrNoFile),
		errors.Is(err, importer.ErrNoSheets),
		errors.Is(err, importer.ErrSheetNotFound),
		errors.Is(err, importer.ErrInvalidHeaderRow),
		errors.Is(err, importer.ErrNoDataRows),
		errors.Is(err, importer.ErrTooManyRows),
		errors.Is(err, importer.ErrInvalidMethod),
		errors.Is(err, importer.ErrUnknownField),
		errors.Is(err, importer.ErrInvalidSelection):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Import failed", err)
	}
}
