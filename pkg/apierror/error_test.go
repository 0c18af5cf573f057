package apierror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSON(t *testing.T) {
	var body map[string]any
	require.NoError(t, json.Unmarshal(NotFound("item not found").ToJSON(), &body))

	assert.Equal(t, false, body["success"])
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
	assert.Equal(t, "item not found", errObj["message"])
	assert.NotContains(t, errObj, "details")
}

func TestDefaultsAndDetails(t *testing.T) {
	assert.Equal(t, "Authentication required", Unauthorized("").Message)

	e := ValidationError("bad query", FieldError{Field: "page", Message: "must be a number"})
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
	require.Len(t, e.Details, 1)
	assert.Equal(t, "page", e.Details[0].Field)
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	ServiceUnavailable("").Write(rec)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}
