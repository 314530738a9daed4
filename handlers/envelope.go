package handlers

import (
	"errors"
	"log"
	"net/http"

	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
)

// Every endpoint answers with the same envelope: {"ok":true,"data":...} on
// success, {"ok":false,"error":{"code","message"}} on failure. The UI
// switches on the code, the message is already localized.

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *errorBody  `json:"error,omitempty"`
}

func respond(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, envelope{OK: true, Data: data})
}

func respondError(c echo.Context, err error) error {
	se, ok := services.AsServiceError(err)
	if !ok {
		log.Printf("[HTTP] unexpected error: %v", err)
		se = services.Fail(services.CodeInternalError, "Внутренняя ошибка.")
	}
	return c.JSON(statusFor(se.Code), envelope{
		OK:    false,
		Error: &errorBody{Code: se.Code, Message: se.Message},
	})
}

func statusFor(code string) int {
	switch code {
	case services.CodeInvalidArgument, services.CodeInvalidPath, services.CodeEmptyFile:
		return http.StatusBadRequest
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeForbidden:
		return http.StatusForbidden
	case services.CodeConflict, services.CodeDuplicate, services.CodeInvalidState:
		return http.StatusConflict
	case services.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case services.CodeNotReady:
		return http.StatusServiceUnavailable
	case services.CodeCaptureFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler renders echo-level failures in the same envelope the
// handlers use: recovered panics, unknown routes, bad methods. Without it
// echo answers with its own {"message":...} body and the UI cannot switch
// on a code.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	body := &errorBody{Code: services.CodeInternalError, Message: "Внутренняя ошибка."}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		switch status {
		case http.StatusNotFound:
			body = &errorBody{Code: services.CodeNotFound, Message: "Маршрут не найден."}
		case http.StatusMethodNotAllowed:
			body = &errorBody{Code: services.CodeInvalidArgument, Message: "Метод не поддерживается."}
		}
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] unhandled error: %v", err)
	}
	if writeErr := c.JSON(status, envelope{OK: false, Error: body}); writeErr != nil {
		log.Printf("[HTTP] error response failed: %v", writeErr)
	}
}

// pathID parses a positive numeric path parameter; zero means invalid and
// the service layer rejects it with the field-specific message.
func pathID(c echo.Context, name string) uint {
	return services.ParsePositiveInt(c.Param(name))
}
