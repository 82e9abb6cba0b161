package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/invoicestudio/backend/internal/auth"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	emaildomain "github.com/invoicestudio/backend/internal/email/domain"
	"github.com/invoicestudio/backend/internal/fxrate"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/money"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
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
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware converts the last error a handler recorded into the
// JSON error envelope. Handlers never write error bodies themselves.
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
			Code:    errorCode(err),
			Message: "validation error",
		}

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, userdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case errors.Is(err, invoicedomain.ErrForbidden),
		errors.Is(err, clientdomain.ErrForbidden),
		errors.Is(err, itemdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	// The lock family is a state conflict, not a malformed request: the
	// resource exists and the payload parses, the edit is just not allowed
	// in the invoice's current state.
	case errors.Is(err, invoicedomain.ErrLocked),
		errors.Is(err, invoicedomain.ErrTaxLocked),
		errors.Is(err, invoicedomain.ErrConflict),
		errors.Is(err, userdomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    errorCode(err),
			Message: "conflict",
		}

	case errors.Is(err, fxrate.ErrUpstream),
		errors.Is(err, emaildomain.ErrSendFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_failure",
			Code:    errorCode(err),
			Message: "upstream failure",
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
		errors.Is(err, invoicedomain.ErrClientRequired),
		errors.Is(err, invoicedomain.ErrItemsRequired),
		errors.Is(err, invoicedomain.ErrInvoiceNumberRequired),
		errors.Is(err, invoicedomain.ErrDueDateRequired),
		errors.Is(err, invoicedomain.ErrUnknownClient),
		errors.Is(err, invoicedomain.ErrUnknownItem),
		errors.Is(err, invoicedomain.ErrInvalidTaxSnapshot),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrNegativeAmount),
		errors.Is(err, money.ErrInvalidTaxRate),
		errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidEmail),
		errors.Is(err, itemdomain.ErrInvalidDescription),
		errors.Is(err, itemdomain.ErrInvalidQuantity),
		errors.Is(err, itemdomain.ErrInvalidPrice),
		errors.Is(err, userdomain.ErrInvalidName),
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, userdomain.ErrInvalidPassword),
		errors.Is(err, userdomain.ErrInvalidTaxRate),
		errors.Is(err, emaildomain.ErrRecipientsRequired),
		errors.Is(err, emaildomain.ErrInvalidRecipient),
		errors.Is(err, fxrate.ErrUnsupportedCurrency):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, itemdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// errorCode extracts the stable sentinel token, dropping any wrapped detail.
func errorCode(err error) string {
	code := err.Error()
	if idx := strings.IndexByte(code, ':'); idx > 0 {
		code = code[:idx]
	}
	return code
}
