package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	creditnotedomain "github.com/smallbiznis/facture/internal/creditnote/domain"
	invoicedomain "github.com/smallbiznis/facture/internal/invoice/domain"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/numbering/format"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
	"github.com/smallbiznis/facture/internal/pricing/tiers"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
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

// classifyErrorForLog reduces an error to the (type, code) pair the
// request logger attaches to access logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, taxdomain.ErrInvalidID),
		errors.Is(err, taxdomain.ErrInvalidName),
		errors.Is(err, taxdomain.ErrInvalidRateType),
		errors.Is(err, taxdomain.ErrInvalidPercentage),
		errors.Is(err, taxdomain.ErrInvalidFixedAmount),
		errors.Is(err, taxdomain.ErrInvalidCurrency),
		errors.Is(err, taxdomain.ErrRateDisabled),
		errors.Is(err, taxdomain.ErrCurrencyMismatch),
		errors.Is(err, taxdomain.ErrMixedInclusion),
		errors.Is(err, numberingdomain.ErrInvalidID),
		errors.Is(err, numberingdomain.ErrInvalidName),
		errors.Is(err, numberingdomain.ErrInvalidDocumentType),
		errors.Is(err, numberingdomain.ErrInvalidTemplate),
		errors.Is(err, numberingdomain.ErrSystemDisabled),
		errors.Is(err, format.ErrInvalidResetInterval),
		errors.Is(err, pricingdomain.ErrInvalidID),
		errors.Is(err, pricingdomain.ErrInvalidName),
		errors.Is(err, pricingdomain.ErrInvalidCurrency),
		errors.Is(err, pricingdomain.ErrInvalidModel),
		errors.Is(err, pricingdomain.ErrInvalidUnitAmount),
		errors.Is(err, pricingdomain.ErrMissingTiers),
		errors.Is(err, pricingdomain.ErrUnexpectedTiers),
		errors.Is(err, pricingdomain.ErrInvalidQuantity),
		errors.Is(err, pricingdomain.ErrPriceDisabled),
		errors.Is(err, tiers.ErrTierOrder),
		errors.Is(err, tiers.ErrTierUnbounded),
		errors.Is(err, tiers.ErrTierBounds),
		errors.Is(err, tiers.ErrNegativeAmount),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidCustomer),
		errors.Is(err, invoicedomain.ErrInvalidCurrency),
		errors.Is(err, invoicedomain.ErrMissingLines),
		errors.Is(err, invoicedomain.ErrInvalidLine),
		errors.Is(err, invoicedomain.ErrMissingNumberingSystem),
		errors.Is(err, creditnotedomain.ErrInvalidID),
		errors.Is(err, creditnotedomain.ErrMissingLines),
		errors.Is(err, creditnotedomain.ErrNothingOutstanding):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, taxdomain.ErrInvalidOrganization),
		errors.Is(err, numberingdomain.ErrInvalidOrganization),
		errors.Is(err, pricingdomain.ErrInvalidOrganization),
		errors.Is(err, invoicedomain.ErrInvalidOrganization),
		errors.Is(err, creditnotedomain.ErrInvalidOrganization):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, pricingdomain.ErrDuplicateLookupKey),
		errors.Is(err, invoicedomain.ErrInvoiceNotDraft),
		errors.Is(err, invoicedomain.ErrInvoiceNotFinalized),
		errors.Is(err, creditnotedomain.ErrInvoiceNotFinalized),
		errors.Is(err, creditnotedomain.ErrNoteNotIssued),
		errors.Is(err, creditnotedomain.ErrOutstandingChanged):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, numberingdomain.ErrNotFound),
		errors.Is(err, pricingdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, creditnotedomain.ErrNotFound),
		errors.Is(err, creditnotedomain.ErrInvoiceNotFound),
		errors.Is(err, creditnotedomain.ErrLineNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "missing_") {
		return strings.TrimPrefix(code, "missing_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
