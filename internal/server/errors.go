package server

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/huddle/internal/middleware"
)

// setupErrorHandling installs an error handler that logs unhandled errors
// with a stack trace and hides their details from the client.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, map[string]any{"message": he.Message})
			return
		}

		middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
			"error", err.Error(),
			"path", c.Path(),
			"stack_trace", string(debug.Stack()),
		)
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"message": http.StatusText(http.StatusInternalServerError)})
	}
}
