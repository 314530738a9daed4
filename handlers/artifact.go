package handlers

import (
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// ListArtifacts returns the artifacts of a case with legal annotations.
func (h *Handler) ListArtifacts(c echo.Context) error {
	views, err := h.artifacts.ListArtifacts(pathID(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, views)
}

// GetArtifact returns one artifact with its legal annotation.
func (h *Handler) GetArtifact(c echo.Context) error {
	view, err := h.artifacts.GetArtifact(pathID(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, view)
}

// SaveArtifact persists a caller-supplied artifact (URL, metadata and
// optional file bodies).
func (h *Handler) SaveArtifact(c echo.Context) error {
	var input services.ArtifactInput
	if err := c.Bind(&input); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	view, err := h.artifacts.SaveArtifact(pathID(c, "id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, view)
}

// CaptureArtifact snapshots the page currently open in the embedded
// browser into the case.
func (h *Handler) CaptureArtifact(c echo.Context) error {
	var req struct {
		SubjectID *uint `json:"subjectId"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	result, err := h.artifacts.CaptureArtifact(c.Request().Context(), pathID(c, "id"), req.SubjectID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, result)
}

// DeleteArtifact removes an artifact row and then its files.
func (h *Handler) DeleteArtifact(c echo.Context) error {
	if err := h.artifacts.DeleteArtifact(pathID(c, "id")); err != nil {
		return respondError(c, err)
	}
	return respond(c, map[string]bool{"deleted": true})
}
