package handlers

import (
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// ListLegalSettings returns all legal marks plus the caller's access
// context.
func (h *Handler) ListLegalSettings(c echo.Context) error {
	list, err := h.settings.ListLegalSettings()
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, list)
}

// CreateLegalSetting adds a legal mark to the shared dictionary.
func (h *Handler) CreateLegalSetting(c echo.Context) error {
	var input services.CreateSettingInput
	if err := c.Bind(&input); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	result, err := h.settings.CreateLegalSetting(input)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, result)
}

// UpdateLegalSetting rewrites a mark's article text. The client must echo
// back the updatedAt it last saw; a stale value yields CONFLICT.
func (h *Handler) UpdateLegalSetting(c echo.Context) error {
	var req struct {
		ArticleText       string  `json:"articleText"`
		ExpectedUpdatedAt *string `json:"expectedUpdatedAt"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	result, err := h.settings.UpdateLegalSetting(pathID(c, "id"), req.ArticleText, req.ExpectedUpdatedAt)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, result)
}

// RollbackLegalSetting restores a mark to a historical article text.
func (h *Handler) RollbackLegalSetting(c echo.Context) error {
	var req struct {
		HistoryID         uint    `json:"historyId"`
		ExpectedUpdatedAt *string `json:"expectedUpdatedAt"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	result, err := h.settings.RollbackLegalSetting(pathID(c, "id"), req.HistoryID, req.ExpectedUpdatedAt)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, result)
}

// ListLegalSettingHistory returns the recent history of a mark.
func (h *Handler) ListLegalSettingHistory(c echo.Context) error {
	limit := services.ParsePositiveInt(c.QueryParam("limit"))
	items, err := h.settings.ListLegalSettingHistory(pathID(c, "id"), int(limit))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, items)
}

// ListPendingChanges returns locally captured edits awaiting manual
// reconciliation with the store.
func (h *Handler) ListPendingChanges(c echo.Context) error {
	changes, err := h.settings.ListPendingChanges()
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, changes)
}
