package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	apperrors "churchadmin/internal/errors"
)

// HTTPErrorHandler renders every error as {message, code, errors?}. Server
// errors are logged with their cause and reported generically.
func HTTPErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var h *apperrors.HTTPError
		if he, ok := err.(*echo.HTTPError); ok {
			h = fromEcho(he)
		} else {
			h = apperrors.MapErrorToHTTP(err)
		}

		if h.StatusCode >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
			}).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(h.StatusCode)
		} else {
			err = c.JSON(h.StatusCode, h.ToErrorResponse())
		}
		if err != nil {
			log.WithError(err).Error("write error response")
		}
	}
}

func fromEcho(he *echo.HTTPError) *apperrors.HTTPError {
	message := http.StatusText(he.Code)
	switch m := he.Message.(type) {
	case string:
		message = m
	case apperrors.ErrorResponse:
		return &apperrors.HTTPError{StatusCode: he.Code, Message: m.Message, Code: m.Code, Fields: m.Errors}
	case error:
		message = m.Error()
	case nil:
	default:
		message = fmt.Sprint(m)
	}
	if he.Code >= http.StatusInternalServerError {
		message = "internal server error"
	}
	return apperrors.NewHTTPError(he.Code, message, statusCode(he.Code))
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "ERROR"
}
