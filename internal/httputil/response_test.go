package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	WriteJSONOK(w, map[string]int{"cycles": 42})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"cycles":42}`, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	BadRequest(w, "missing line")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"missing line"}`, w.Body.String())

	w = httptest.NewRecorder()
	InternalServerError(w, "inbound queue full")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"inbound queue full"}`, w.Body.String())
}
