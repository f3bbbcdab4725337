package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("document"), IsNotFound},
		{"validation", NewValidationError("title is required"), IsValidation},
		{"storage", NewStorageError("put", fmt.Errorf("disk full")), IsStorage},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFoundError("document")), IsNotFound},
		{"conflict", NewConflictError("exists"), IsConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}

	assert.False(t, IsNotFound(fmt.Errorf("plain")))
	assert.False(t, IsStorage(NewValidationError("bad")))
	assert.False(t, IsConflict(nil))
	assert.Equal(t, "document not found", NewNotFoundError("document").Message)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))

	wrapped := Wrap(NewNotFoundError("document"), "get")
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "get: document not found", GetAppError(wrapped).Message)

	plain := Wrap(fmt.Errorf("boom"), "save")
	assert.True(t, IsType(plain, ErrorTypeInternal))
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"not found", NewNotFoundError("document"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", NewValidationError("bad"), http.StatusBadRequest, "VALIDATION"},
		{"storage", NewStorageError("put", fmt.Errorf("io")), http.StatusInternalServerError, "STORAGE"},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/1", nil)

			handler.Handle(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantType, body.Type)
		})
	}
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	panicking := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestErrorHandler_HandleStatus(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		status   int
		wantType string
	}{
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusForbidden, "FORBIDDEN"},
		{http.StatusMethodNotAllowed, "VALIDATION"},
		{http.StatusTooManyRequests, "RATE_LIMITED"},
		{http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.status, "nope")

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, "nope", body.Message)
		})
	}
}
