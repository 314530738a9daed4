package handlers

import (
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// ExportCaseReport renders the case report in the requested formats.
func (h *Handler) ExportCaseReport(c echo.Context) error {
	var opts services.ReportOptions
	if err := c.Bind(&opts); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	result, err := h.reports.ExportCaseReport(c.Request().Context(), pathID(c, "id"), opts)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, result)
}
