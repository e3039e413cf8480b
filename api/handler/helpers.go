package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	tagInvalidBody   = "INVALID_BODY"
	tagInternalError = "INTERNAL_ERROR"
)

var errInvalidBody = errors.New(tagInvalidBody)

// decodeBody fills target from a JSON or form-encoded request body.
func decodeBody(c echo.Context, target any) error {
	mediaType, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if err != nil {
		return errInvalidBody
	}
	switch mediaType {
	case echo.MIMEApplicationJSON:
		if err := decodeJSON(c, target); err != nil {
			return errInvalidBody
		}
		return nil
	case echo.MIMEApplicationForm, echo.MIMEMultipartForm:
		if err := (&echo.DefaultBinder{}).BindBody(c, target); err != nil {
			return errInvalidBody
		}
		return nil
	}
	return errInvalidBody
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	return decoder.Decode(target)
}

func writeTag(c echo.Context, status int, tag string) error {
	return c.String(status, tag)
}

// writeServiceError maps newsletter outcomes to their status. Anything
// unrecognised becomes a 500 carrying the cause for the request logger.
func writeServiceError(c echo.Context, err error) error {
	status, known := serviceErrorStatus(err)
	if !known {
		return echo.NewHTTPError(http.StatusInternalServerError, tagInternalError).SetInternal(err)
	}
	return writeTag(c, status, err.Error())
}

func serviceErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrAlreadyUnsubscribed), errors.Is(err, service.ErrAlreadyConfirmed):
		return http.StatusOK, true
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrAlreadySubscribed),
		errors.Is(err, service.ErrUnknownHostname),
		errors.Is(err, service.ErrTokenNotFound),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, service.ErrExistingUnexpiredToken):
		return http.StatusTooManyRequests, true
	case errors.Is(err, service.ErrConfirmationUnavailable):
		return http.StatusServiceUnavailable, true
	}
	return 0, false
}

// outcomeTag is the label recorded for err, or "INTERNAL_ERROR".
func outcomeTag(err error) string {
	if _, known := serviceErrorStatus(err); known {
		return err.Error()
	}
	return tagInternalError
}

func parseLimitOffset(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

// HTTPErrorHandler renders every error as a plain text body. Internal causes
// are logged and never sent to the client.
func HTTPErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := tagInternalError
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if text, ok := httpErr.Message.(string); ok {
				message = text
			} else {
				message = http.StatusText(status)
			}
			if httpErr.Internal != nil {
				logger.WithError(httpErr.Internal).WithFields(logrus.Fields{
					"method": c.Request().Method,
					"uri":    c.Request().RequestURI,
				}).Error("request failed")
			}
		} else {
			logger.WithError(err).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.String(status, message)
		}
		if err != nil {
			logger.WithError(err).Warn("write error response")
		}
	}
}
