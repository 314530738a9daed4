package handlers

import (
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// Handler wires the service layer to the HTTP surface consumed by the
// desktop UI.
type Handler struct {
	cases     *services.CaseService
	artifacts *services.ArtifactService
	legal     *services.LegalService
	settings  *services.SettingsService
	reports   *services.ReportService
	browser   *services.BrowserSession
}

func New(cases *services.CaseService, artifacts *services.ArtifactService,
	legal *services.LegalService, settings *services.SettingsService,
	reports *services.ReportService, browser *services.BrowserSession) *Handler {
	return &Handler{
		cases:     cases,
		artifacts: artifacts,
		legal:     legal,
		settings:  settings,
		reports:   reports,
		browser:   browser,
	}
}

// RegisterRoutes mounts all endpoints under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = errorHandler

	api := e.Group("/api")

	api.GET("/cases", h.ListCases)
	api.POST("/cases", h.CreateCase)
	api.GET("/cases/:id", h.GetCase)
	api.PUT("/cases/:id", h.UpdateCase)
	api.DELETE("/cases/:id", h.DeleteCase)

	api.GET("/cases/:id/subjects", h.ListSubjects)
	api.POST("/cases/:id/subjects", h.CreateSubject)
	api.DELETE("/cases/:id/subjects/:subjectId", h.DeleteSubject)

	api.GET("/cases/:id/artifacts", h.ListArtifacts)
	api.POST("/cases/:id/artifacts", h.SaveArtifact)
	api.POST("/cases/:id/artifacts/capture", h.CaptureArtifact)
	api.GET("/artifacts/:id", h.GetArtifact)
	api.DELETE("/artifacts/:id", h.DeleteArtifact)

	api.GET("/legal-marks", h.ListLegalMarks)
	api.PUT("/artifacts/:id/legal", h.SetArtifactLegal)
	api.GET("/artifacts/:id/legal-form", h.GetLegalForm)
	api.PUT("/cases/:id/legal-marks", h.UpdateCaseLegalMarks)

	api.GET("/settings/legal", h.ListLegalSettings)
	api.POST("/settings/legal", h.CreateLegalSetting)
	api.PUT("/settings/legal/:id", h.UpdateLegalSetting)
	api.POST("/settings/legal/:id/rollback", h.RollbackLegalSetting)
	api.GET("/settings/legal/:id/history", h.ListLegalSettingHistory)
	api.GET("/settings/legal/pending", h.ListPendingChanges)

	api.POST("/cases/:id/report", h.ExportCaseReport)

	api.POST("/browser/navigate", h.NavigateBrowser)
	api.GET("/browser/status", h.BrowserStatus)
}
