package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/spk/internal/audit/domain"
	documentdomain "github.com/smallbiznis/spk/internal/document/domain"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"github.com/smallbiznis/spk/pkg/db/pagination"
)

type errorPayload struct {
	Type    string              `json:"type"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Success bool         `json:"success"`
	Error   errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

// ErrorHandlingMiddleware renders the last handler error. Store and render
// details stay in the logs; clients get a generic message.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError(field string) error {
	return &domain.ValidationError{Errors: []domain.FieldError{{
		Field:   field,
		Code:    "invalid_request",
		Message: "malformed request",
	}}}
}

func mapError(err error) (int, errorPayload) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var renderErr *documentdomain.RenderError
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: "invalid request"}
	case errors.Is(err, domain.ErrInvalidPageToken),
		errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidPageToken):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: "invalid page token"}
	case errors.Is(err, domain.ErrPaymentNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "payment not found"}
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "work order not found"}
	case errors.As(err, &renderErr):
		return http.StatusInternalServerError, errorPayload{Type: "render_error", Message: "failed to generate document"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

// classifyErrorForLog feeds the request logger's error_type and error_code fields.
func classifyErrorForLog(err error) (string, string) {
	var pErr *domain.PersistenceError
	if errors.As(err, &pErr) {
		return "persistence_error", pErr.Op
	}
	_, payload := mapError(err)
	return payload.Type, err.Error()
}
