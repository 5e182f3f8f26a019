package handler

import "github.com/labstack/echo/v4"

// envelope is the JSON wrapper shared by error responses and the auth
// success responses: {success, code, message?, data?}.
type envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// fail writes the standard error envelope with the given status.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Code: status, Message: message})
}

// ok writes a success envelope wrapping data.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Code: status, Data: data})
}
