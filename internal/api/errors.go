package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"fieldops-sim/internal/farm"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// errorHandler maps not-found errors to 404 and echo errors to their own code.
// Everything else is a 500 with the error logged.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		switch {
		case errors.Is(err, farm.ErrNotFound):
			code = http.StatusNotFound
		case errors.As(err, &he):
			code = he.Code
			msg = fmt.Sprint(he.Message)
		default:
			log.Error("request failed", "path", c.Request().URL.Path, "err", err)
		}

		body := ErrorBody{
			Status:  code,
			Error:   http.StatusText(code),
			Message: msg,
			Path:    c.Request().URL.Path,
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Error("write error response", "err", err)
		}
	}
}
