package handler

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/service"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImportApp(t *testing.T) (*fiber.App, *repository.MemoryBankAccountStore) {
	t.Helper()

	accounts := repository.NewMemoryBankAccountStore(repository.SeedBankAccounts())
	sessions := repository.NewMemoryImportSessionStore(time.Minute)
	t.Cleanup(func() { sessions.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	datasets := service.NewDatasetRegistry(service.NewBankAccountDataset(accounts))
	importService := service.NewImportService(datasets, sessions, nil, service.ImportOptions{MaxRows: 100}, logger)
	h := NewImportHandler(importService, models.DatasetBankAccounts)

	app := fiber.New()
	imports := app.Group("/imports")
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
	return app, accounts
}

func accountRows(t *testing.T) []byte {
	return workbook(t,
		[]interface{}{"Account number", "Account name", "Bank name", "Branch", "Currency", "Opening balance", "Notes"},
		[]interface{}{"0071000123456", "Renamed Co", "Vietcombank", "", "VND", "1000", ""},
		[]interface{}{"555", "New Co", "ACB", "Can Tho", "", "", ""},
		[]interface{}{"", "No number", "ACB"},
	)
}

func TestImportHandler_Wizard(t *testing.T) {
	app, accounts := newImportApp(t)

	resp, env := doUpload(t, app, "/imports", "accounts.xlsx", accountRows(t))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	view := decode[sessionView](t, env.Data)
	assert.Equal(t, importer.StepSelectFile, view.Step)
	assert.Equal(t, []string{"Sheet1"}, view.Sheets)
	assert.Equal(t, 3, view.RowCount)
	assert.Nil(t, view.Summary)
	base := "/imports/" + view.ID

	resp, _ = doJSON(t, app, http.MethodPut, base+"/sheet", map[string]interface{}{"sheet": "Missing", "header_row": 1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, base+"/mapping/next", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view = decode[sessionView](t, env.Data)
	assert.Equal(t, importer.StepMapColumns, view.Step)
	assert.True(t, view.MappingComplete)

	resp, _ = doJSON(t, app, http.MethodPut, base+"/method", map[string]interface{}{"method": "merge"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, base+"/review", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	view = decode[sessionView](t, env.Data)
	require.NotNil(t, view.Summary)
	assert.Equal(t, reviewSummary{Total: 3, Valid: 1, Invalid: 2, Selected: 1}, *view.Summary)
	assert.Equal(t, []int{3}, view.SelectedRows)

	resp, _ = doUpload(t, app, base+"/file", "again.xlsx", accountRows(t))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, base+"/error-report?format=csv", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, csvContentType, resp.Header.Get(fiber.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Account number is required")

	resp, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, base+"/error-report?format=pdf", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, base+"/commit", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	summary := decode[importer.CommitSummary](t, env.Data)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, "Import completed: 1 inserted, 0 updated", env.Message)

	_, err = accounts.FindByCode(context.Background(), "555")
	assert.NoError(t, err)

	resp, _ = doJSON(t, app, http.MethodGet, base, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestImportHandler_Errors(t *testing.T) {
	app, _ := newImportApp(t)

	t.Run("unreadable file discards the session", func(t *testing.T) {
		resp, env := doUpload(t, app, "/imports", "broken.xlsx", []byte("plain text"))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.False(t, env.Success)
	})

	t.Run("incomplete mapping lists missing fields", func(t *testing.T) {
		data := workbook(t,
			[]interface{}{"Account number"},
			[]interface{}{"999"},
		)
		resp, env := doUpload(t, app, "/imports", "short.xlsx", data)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		base := "/imports/" + decode[sessionView](t, env.Data).ID

		resp, env = doJSON(t, app, http.MethodPost, base+"/mapping/next", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"Account name", "Bank name"}, decode[sessionView](t, env.Data).MissingMappings)

		resp, env = doJSON(t, app, http.MethodPost, base+"/review", nil)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		missing := decode[map[string][]string](t, env.Data)["missing"]
		assert.Len(t, missing, 2)

		resp, env = doJSON(t, app, http.MethodPut, base+"/mapping", map[string]interface{}{
			"mappings": map[string]string{"account_name": "Account number", "bank_name": "Account number"},
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, decode[sessionView](t, env.Data).MappingComplete)

		resp, _ = doJSON(t, app, http.MethodDelete, base, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("commit before review", func(t *testing.T) {
		resp, env := doJSON(t, app, http.MethodPost, "/imports", nil)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		base := "/imports/" + decode[sessionView](t, env.Data).ID

		resp, _ = doJSON(t, app, http.MethodPost, base+"/commit", nil)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodPost, base+"/mapping/next", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/imports/does-not-exist", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
