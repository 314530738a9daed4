package handlers

import (
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// ListCases returns all cases, newest first.
func (h *Handler) ListCases(c echo.Context) error {
	cases, err := h.cases.ListCases()
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, cases)
}

// GetCase returns one case by id.
func (h *Handler) GetCase(c echo.Context) error {
	item, err := h.cases.GetCase(pathID(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, item)
}

// CreateCase creates a case.
func (h *Handler) CreateCase(c echo.Context) error {
	var input services.CaseInput
	if err := c.Bind(&input); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	item, err := h.cases.CreateCase(input)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, item)
}

// UpdateCase updates a case.
func (h *Handler) UpdateCase(c echo.Context) error {
	var input services.CaseInput
	if err := c.Bind(&input); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	item, err := h.cases.UpdateCase(pathID(c, "id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, item)
}

// DeleteCase removes a case along with its subjects and artifacts.
func (h *Handler) DeleteCase(c echo.Context) error {
	if err := h.cases.DeleteCase(pathID(c, "id")); err != nil {
		return respondError(c, err)
	}
	return respond(c, map[string]bool{"deleted": true})
}

// ListSubjects returns the subjects of a case.
func (h *Handler) ListSubjects(c echo.Context) error {
	subjects, err := h.cases.ListSubjects(pathID(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, subjects)
}

// CreateSubject adds a subject to a case.
func (h *Handler) CreateSubject(c echo.Context) error {
	var input services.SubjectInput
	if err := c.Bind(&input); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	subject, err := h.cases.CreateSubject(pathID(c, "id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, subject)
}

// DeleteSubject removes a subject; its artifacts stay, unlinked.
func (h *Handler) DeleteSubject(c echo.Context) error {
	if err := h.cases.DeleteSubject(pathID(c, "id"), pathID(c, "subjectId")); err != nil {
		return respondError(c, err)
	}
	return respond(c, map[string]bool{"deleted": true})
}
