package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 25

// pageSizes are the page sizes offered by the master data tables.
var pageSizes = []int{10, 25, 50, 100}

// PaginationParams is the list query of the master data endpoints. Rows are
// always ordered by their business key, so no sort parameters are accepted.
type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search"`
}

// Offset is the number of rows skipped before the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
	HasMore     bool  `json:"has_more"`
}

// PaginatedResponse is Response with the page metadata of a list endpoint.
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// GetPaginationParams reads page, limit and search from the query string.
// Pages below 1 become 1 and sizes outside GetLimitOptions become 25.
func GetPaginationParams(c *fiber.Ctx) PaginationParams {
	params := PaginationParams{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", defaultPageSize),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if !isPageSize(params.Limit) {
		params.Limit = defaultPageSize
	}
	return params
}

func isPageSize(limit int) bool {
	for _, size := range pageSizes {
		if size == limit {
			return true
		}
	}
	return false
}

// CalculatePagination describes one page of a result set of total rows.
func CalculatePagination(page, limit int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}

	meta := PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		LastPage:    int((total + int64(limit) - 1) / int64(limit)),
	}
	if total > 0 {
		meta.From = (page-1)*limit + 1
		meta.To = page * limit
		if int64(meta.To) > total {
			meta.To = int(total)
		}
	}
	meta.HasMore = page < meta.LastPage
	return meta
}

func PaginatedResponseBuilder(c *fiber.Ctx, message string, data interface{}, pagination PaginationMeta) error {
	return c.JSON(PaginatedResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// GetLimitOptions returns the page sizes for the page size selector.
func GetLimitOptions() []int {
	return append([]int(nil), pageSizes...)
}

