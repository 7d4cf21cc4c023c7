package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// requestError is a failure decided at the HTTP boundary, before any
// library call is made.
type requestError struct {
	Status int
	Code   string
	Err    error
}

func (e *requestError) Error() string { return e.Err.Error() }
func (e *requestError) Unwrap() error { return e.Err }

func badRequest(format string, args ...interface{}) error {
	return &requestError{Status: http.StatusBadRequest, Code: "invalid_request", Err: fmt.Errorf(format, args...)}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// statusFor maps a library error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return re.Status, re.Code
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, library.ErrBookUnavailable):
		return http.StatusConflict, "book_unavailable"
	case errors.Is(err, library.ErrAlreadyReturned):
		return http.StatusConflict, "already_returned"
	case errors.Is(err, library.ErrLimitExceeded):
		return http.StatusUnprocessableEntity, "limit_exceeded"
	case errors.Is(err, library.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, library.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func fail(c *gin.Context, log *logger.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
		// Storage details stay in the log.
		err = errors.New("internal server error")
	}
	_ = c.Error(err)
	RespondError(c, status, code, err)
}

func paramID(c *gin.Context, name string) (int64, error) {
	return parseID(name, c.Param(name))
}

func queryID(c *gin.Context, name string) (int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, badRequest("query parameter %s is required", name)
	}
	return parseID(name, raw)
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}
