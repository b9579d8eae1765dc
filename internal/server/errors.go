package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mesa/internal/authorization"
	memberdomain "github.com/smallbiznis/mesa/internal/member/domain"
	paymentdomain "github.com/smallbiznis/mesa/internal/payment/domain"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	shiftdomain "github.com/smallbiznis/mesa/internal/shift/domain"
	tabledomain "github.com/smallbiznis/mesa/internal/table/domain"
	taxdomain "github.com/smallbiznis/mesa/internal/tax/domain"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/pkg/repository"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

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
		c.Header("Content-Type", "application/json")
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

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	case errors.Is(err, shiftdomain.ErrNothingToClose):
		return http.StatusConflict, errorPayload{
			Type:    "nothing_to_close",
			Code:    err.Error(),
			Message: "no unreconciled sessions",
		}
	case isConsistencyError(err):
		// Callers may refresh and retry; this is not a permanent failure.
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    err.Error(),
			Message: "state conflict",
		}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, repository.ErrNoTenant):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, repository.ErrPermissionDenied):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		// Cross-tenant references land here on purpose: existence is
		// never confirmed across the isolation boundary.
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidHourlyRate),
		errors.Is(err, tenantdomain.ErrInvalidTaxRate),
		errors.Is(err, tabledomain.ErrInvalidNumber),
		errors.Is(err, sessiondomain.ErrInvalidQuantity),
		errors.Is(err, sessiondomain.ErrInvalidPrice),
		errors.Is(err, sessiondomain.ErrInvalidProduct),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, shiftdomain.ErrInvalidCash),
		errors.Is(err, shiftdomain.ErrInvalidCloser),
		errors.Is(err, authorization.ErrInvalidRole):
		return true
	default:
		return false
	}
}

func isConsistencyError(err error) bool {
	switch {
	case errors.Is(err, tabledomain.ErrTableOccupied),
		errors.Is(err, tabledomain.ErrTableNotOccupied),
		errors.Is(err, tabledomain.ErrTableNotCleaning),
		errors.Is(err, tabledomain.ErrConcurrentUpdate),
		errors.Is(err, tabledomain.ErrDuplicateNumber),
		errors.Is(err, sessiondomain.ErrSessionClosed),
		errors.Is(err, sessiondomain.ErrSessionSealed),
		errors.Is(err, paymentdomain.ErrAlreadyPaid),
		errors.Is(err, shiftdomain.ErrClaimConflict):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, tabledomain.ErrNotFound),
		errors.Is(err, sessiondomain.ErrNotFound),
		errors.Is(err, memberdomain.ErrNotFound),
		errors.Is(err, shiftdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrConfigNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
