package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/ledger"
	"churchadmin/internal/middleware"
	"churchadmin/internal/repository"
)

// Meta describes the page returned in a list envelope.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// ListResponse is the envelope for paginated listings.
type ListResponse struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

// DataResponse wraps a single resource. Actions also carry a message.
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Pager reads page and per_page query parameters.
type Pager struct {
	DefaultSize int
	MaxSize     int
}

// Page returns the requested page, clamping per_page to [1, MaxSize].
func (p Pager) Page(c echo.Context) repository.Pagination {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("per_page"))
	if size < 1 {
		size = p.DefaultSize
	}
	if size < 1 {
		size = 15
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		size = p.MaxSize
	}
	return repository.Pagination{Page: page, PerPage: size}
}

func respondList(c echo.Context, items interface{}, total int64, page repository.Pagination) error {
	last := 1
	if page.PerPage > 0 && total > 0 {
		last = int((total + int64(page.PerPage) - 1) / int64(page.PerPage))
	}
	return c.JSON(http.StatusOK, ListResponse{
		Data: items,
		Meta: Meta{CurrentPage: page.Page, PerPage: page.PerPage, Total: total, LastPage: last},
	})
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, DataResponse{Data: data})
}

func respondMessage(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, DataResponse{Message: message, Data: data})
}

// bind decodes the body into dst and runs struct validation.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(dst)
}

func idParam(c echo.Context, name, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(resource)
	}
	return uint(id), nil
}

func actor(c echo.Context) *access.Identity {
	return middleware.Identity(c)
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(name, "the "+name+" field must be true or false")
	}
	return &v, nil
}

func queryUint(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError(name, "the "+name+" field must be an integer")
	}
	id := uint(v)
	return &id, nil
}

func requireActor(c echo.Context) (*access.Identity, error) {
	id := middleware.Identity(c)
	if id == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return id, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := ledger.ParseDate(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(name, "the "+name+" field must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
