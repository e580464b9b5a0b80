package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation error keeps fields",
			err:        NewValidationError("amount", "amount must be at least 0.01"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
			wantMsg:    "amount must be at least 0.01",
		},
		{
			name:       "wrapped validation error",
			err:        fmt.Errorf("create contribution: %w", NewValidationError("type", "invalid")),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
			wantMsg:    "invalid",
		},
		{
			name:       "unauthenticated sentinel",
			err:        ErrUnauthenticated,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHENTICATED",
			wantMsg:    "unauthenticated",
		},
		{
			name:       "forbidden sentinel",
			err:        ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
			wantMsg:    "this action is unauthorized",
		},
		{
			name:       "typed not found keeps its message through wrapping",
			err:        fmt.Errorf("get event: %w", NotFound("event")),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "event not found",
		},
		{
			name:       "gorm record not found",
			err:        fmt.Errorf("find: %w", gorm.ErrRecordNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "resource not found",
		},
		{
			name:       "conflict",
			err:        Conflict("user already registered for event %d", 4),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
			wantMsg:    "user already registered for event 4",
		},
		{
			name:       "gorm duplicated key",
			err:        gorm.ErrDuplicatedKey,
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
			wantMsg:    "conflict",
		},
		{
			name:       "unavailable",
			err:        Unavailable("report archiving is not configured"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "SERVICE_UNAVAILABLE",
			wantMsg:    "report archiving is not configured",
		},
		{
			name:       "unknown error hides detail",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestValidationError_Add(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("end_date", "end date must be after start date")
	verr.Add("end_date", "ignored")
	verr.Add("amount", "required")

	assert.True(t, verr.HasErrors())
	assert.Equal(t, "end date must be after start date", verr.Fields["end_date"])
	assert.Equal(t, "the given data was invalid: amount, end_date", verr.Error())

	resp := MapErrorToHTTP(verr.OrNil()).ToErrorResponse()
	assert.Len(t, resp.Errors, 2)
}
