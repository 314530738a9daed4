package handlers

import (
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// ListLegalMarks returns the shared legal-mark dictionary.
func (h *Handler) ListLegalMarks(c echo.Context) error {
	marks, err := h.legal.ListLegalMarks()
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, marks)
}

// SetArtifactLegal attaches or replaces the legal annotation of one
// artifact.
func (h *Handler) SetArtifactLegal(c echo.Context) error {
	var input services.AnnotationInput
	if err := c.Bind(&input); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	view, err := h.legal.SetArtifactLegal(pathID(c, "id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, view)
}

// GetLegalForm returns the prefilled annotation form for an artifact.
func (h *Handler) GetLegalForm(c echo.Context) error {
	view, err := h.artifacts.GetArtifact(pathID(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, services.BuildLegalFormFromArtifact(view))
}

// UpdateCaseLegalMarks replaces all annotations of a case in one
// transaction.
func (h *Handler) UpdateCaseLegalMarks(c echo.Context) error {
	var req struct {
		Marks []services.CaseMarkInput `json:"marks"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	updated, err := h.legal.UpdateCaseLegalMarks(pathID(c, "id"), req.Marks)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, map[string]int{"updated": updated})
}
