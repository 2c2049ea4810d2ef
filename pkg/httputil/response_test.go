package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, http.StatusOK, map[string]int{"count": 3})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
}

func TestWriteMessage_StatusHelpers(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w http.ResponseWriter)
		status  int
		message string
	}{
		{
			name:    "validation error",
			write:   func(w http.ResponseWriter) { WriteValidationError(w, "Missing required fields") },
			status:  http.StatusBadRequest,
			message: "Missing required fields",
		},
		{
			name:    "unauthorized",
			write:   func(w http.ResponseWriter) { WriteUnauthorized(w, "Access token required") },
			status:  http.StatusUnauthorized,
			message: "Access token required",
		},
		{
			name:    "forbidden",
			write:   func(w http.ResponseWriter) { WriteForbidden(w, "Access denied") },
			status:  http.StatusForbidden,
			message: "Access denied",
		},
		{
			name:    "not found",
			write:   func(w http.ResponseWriter) { WriteNotFound(w, "Interrogation not found") },
			status:  http.StatusNotFound,
			message: "Interrogation not found",
		},
		{
			name:    "internal error hides details",
			write:   func(w http.ResponseWriter) { WriteInternalError(w) },
			status:  http.StatusInternalServerError,
			message: "Internal server error",
		},
		{
			name:    "rate limited",
			write:   func(w http.ResponseWriter) { WriteTooManyRequests(w, "Too many login attempts") },
			status:  http.StatusTooManyRequests,
			message: "Too many login attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeMessage(t, rec))
		})
	}
}

func TestWriteCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteCreated(rec, map[string]string{"id": "abc"}))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"abc"}`, rec.Body.String())
}
