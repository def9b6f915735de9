package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// APIError is the one error shape handlers surface to clients. Every failure
// that crosses the HTTP boundary is either an *APIError or gets collapsed
// into INTERNAL_ERROR by Fail.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func ValidationError(message string, details any) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

func Unauthorized() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: "Unauthorized"}
}

func InvalidCredentials() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid email or password"}
}

func Forbidden() *APIError {
	return &APIError{Status: http.StatusForbidden, Code: CodeForbidden, Message: "Forbidden"}
}

func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func Conflict(message string, details any) *APIError {
	return &APIError{Status: http.StatusConflict, Code: CodeConflict, Message: message, Details: details}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"requestId"`
}

// Fail renders err into the uniform error envelope and aborts the request.
// Postgres unique violations are translated to CONFLICT here so repos can
// return driver errors untouched; anything unrecognized becomes INTERNAL_ERROR.
func Fail(c *gin.Context, err error) {
	rid := c.GetString("request_id")

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, errorEnvelope{
			Error:     errorBody{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details},
			RequestID: rid,
		})
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		c.AbortWithStatusJSON(http.StatusConflict, errorEnvelope{
			Error:     errorBody{Code: CodeConflict, Message: "Unique constraint violation", Details: pgErr.ConstraintName},
			RequestID: rid,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, errorEnvelope{
		Error:     errorBody{Code: CodeInternal, Message: "Internal server error"},
		RequestID: rid,
	})
}
