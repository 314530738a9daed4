package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCaseHandler(t *testing.T) {
	h, _ := setupHandler(t)

	c, rec := setupEcho(http.MethodPost, "/api/cases", jsonBody(t, map[string]interface{}{
		"title": "Мониторинг форума",
	}))
	require.NoError(t, h.CreateCase(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	parsed := decodeEnvelope(t, rec)
	assert.Equal(t, true, parsed["ok"])
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, "Мониторинг форума", data["title"])
	assert.Equal(t, "open", data["status"])
}

func TestCreateCaseHandlerRejectsBlankTitle(t *testing.T) {
	h, _ := setupHandler(t)

	c, rec := setupEcho(http.MethodPost, "/api/cases", jsonBody(t, map[string]interface{}{
		"title": "   ",
	}))
	require.NoError(t, h.CreateCase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	parsed := decodeEnvelope(t, rec)
	assert.Equal(t, false, parsed["ok"])
	errBody := parsed["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_ARGUMENT", errBody["code"])
	assert.NotEmpty(t, errBody["message"])
}

func TestGetCaseHandlerNotFound(t *testing.T) {
	h, _ := setupHandler(t)

	c, rec := setupEcho(http.MethodGet, "/api/cases/9999", nil)
	c.SetParamNames("id")
	c.SetParamValues("9999")
	require.NoError(t, h.GetCase(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	parsed := decodeEnvelope(t, rec)
	errBody := parsed["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}

func TestGetCaseHandlerRejectsNonNumericID(t *testing.T) {
	h, _ := setupHandler(t)

	c, rec := setupEcho(http.MethodGet, "/api/cases/abc", nil)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.GetCase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
