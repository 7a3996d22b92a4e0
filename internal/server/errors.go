package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// JSONErrorHandler returns an HTTP error handler that keeps every error,
// including router 404s, rate limiting and auth failures, in the
// ErrorResponse format.
func JSONErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok && m != "" {
				msg = m
			}
			_ = c.JSON(he.Code, ErrorResponse{Error: msg, Code: he.Code})
			return
		}

		if logger != nil {
			logger.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
