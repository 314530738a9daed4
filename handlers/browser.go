package handlers

import (
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// NavigateBrowser points the embedded browser at a URL.
func (h *Handler) NavigateBrowser(c echo.Context) error {
	if h.browser == nil {
		return respondError(c, services.Fail(services.CodeNotReady, "Браузер не запущен."))
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, services.Fail(services.CodeInvalidArgument, "Некорректное тело запроса."))
	}
	if err := h.browser.Navigate(c.Request().Context(), req.URL); err != nil {
		return respondError(c, err)
	}
	return respond(c, map[string]bool{"navigated": true})
}

// BrowserStatus reports whether the embedded browser can capture, and what
// page it is on.
func (h *Handler) BrowserStatus(c echo.Context) error {
	status := map[string]interface{}{"ready": false}
	if h.browser == nil {
		return respond(c, status)
	}
	if err := h.browser.Ready(); err != nil {
		return respond(c, status)
	}
	status["ready"] = true
	if url, err := h.browser.CurrentURL(c.Request().Context()); err == nil {
		status["url"] = url
	}
	if title, err := h.browser.CurrentTitle(c.Request().Context()); err == nil {
		status["title"] = title
	}
	return respond(c, status)
}
