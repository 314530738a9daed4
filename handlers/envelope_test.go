package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicAnswersWithEnvelope(t *testing.T) {
	h, _ := setupHandler(t)
	e := echo.New()
	e.Use(echomiddleware.Recover())
	h.RegisterRoutes(e)
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	parsed := decodeEnvelope(t, rec)
	assert.Equal(t, false, parsed["ok"])
	errBody := parsed["error"].(map[string]interface{})
	assert.Equal(t, "INTERNAL_ERROR", errBody["code"])
	assert.Equal(t, "Внутренняя ошибка.", errBody["message"])
}

func TestUnknownRouteAnswersWithEnvelope(t *testing.T) {
	h, _ := setupHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	parsed := decodeEnvelope(t, rec)
	assert.Equal(t, false, parsed["ok"])
	errBody := parsed["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}
