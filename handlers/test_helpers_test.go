package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"osint_casework_go/config"
	"osint_casework_go/models"
	"osint_casework_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := "mem_" + uuid.New().String()
	conn, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Case{}, &models.Subject{}, &models.Artifact{},
		&models.LegalMark{}, &models.ArtifactLegalMark{}, &models.LegalMarkHistory{},
	))
	return conn
}

func setupHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	conn := setupTestDB(t)
	dataDir := t.TempDir()
	cfg := &config.Config{
		Environment: "test",
		DataDir:     dataDir,
	}
	files, err := services.NewFileStore(filepath.Join(dataDir, "screenshots"))
	require.NoError(t, err)

	cases := services.NewCaseService(conn)
	artifacts := services.NewArtifactService(conn, files, nil, nil)
	legal := services.NewLegalService(conn, files)
	settings := services.NewSettingsService(conn, cfg)
	reports := services.NewReportService(conn, files, cfg)
	return New(cases, artifacts, legal, settings, reports, nil), conn
}

func setupEcho(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func jsonBody(t *testing.T, payload interface{}) io.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return strings.NewReader(string(raw))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return parsed
}
