package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func dataResponse(c echo.Context, status int, data any) error {
	return c.JSON(status, Response{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func successResponse(c echo.Context, data any) error {
	return dataResponse(c, http.StatusOK, data)
}

func errorResponse(c echo.Context, status int, msg string) error {
	return c.JSON(status, Response{Status: status, Message: msg})
}
