package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{BadRequestWrap(stderrors.New("eof"), "bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{RateLimit("slow down"), http.StatusTooManyRequests},
		{DataSourceUnavailable(stderrors.New("refused")), http.StatusServiceUnavailable},
		{Internal("oops"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode)
		})
	}
}

func TestIsDataSourceUnavailable(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("load orders: %w", DataSourceUnavailable(cause))

	assert.True(t, IsDataSourceUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsDataSourceUnavailable(InternalWrap(cause, "other")))
	assert.False(t, IsDataSourceUnavailable(cause))
}

func TestMissingColumnError(t *testing.T) {
	assert.Equal(t, `by_region: column "state_name" is not available`,
		(&MissingColumnError{Column: "state_name", Panel: "by_region"}).Error())
	assert.Equal(t, `column "total_due" is not available`,
		(&MissingColumnError{Column: "total_due"}).Error())
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := httptest.NewRecorder()
	WriteError(w, logger, ValidationWrap(stderrors.New("parsing time"), "start must be a date"), "req-1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response.Success)
	assert.Equal(t, CodeValidation, response.Error.Code)
	assert.Equal(t, "start must be a date", response.Error.Message)
	assert.Equal(t, "req-1", response.Error.RequestID)
}

func TestWriteError_PlainError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := httptest.NewRecorder()
	WriteError(w, logger, stderrors.New("driver: bad connection"), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "bad connection", "causes are not exposed to clients")
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]int{"orders": 3}, map[string]string{"Cache-Control": "no-store"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"success":true,"data":{"orders":3}}`, w.Body.String())
}
