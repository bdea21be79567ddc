package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/aisohq/aiso-market/internal/domain"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
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

// RespondDomainError maps a domain error code onto an HTTP status.
func RespondDomainError(c *gin.Context, err error) {
	code := types.CodeOf(err)
	RespondError(c, statusFor(code), string(code), err)
}

func statusFor(code types.ErrorCode) int {
	switch code {
	case types.CodeNotFound, types.CodeNotInstalled:
		return http.StatusNotFound
	case types.CodeUnauthorized:
		return http.StatusUnauthorized
	case types.CodeForbidden:
		return http.StatusForbidden
	case types.CodeConflict, types.CodeInvalidTransition, types.CodeDuplicateVersion,
		types.CodeVersionOrdering, types.CodeNotInstallable:
		return http.StatusConflict
	case types.CodeValidation, types.CodeInvalidPermission, types.CodeOverreach,
		types.CodeIncompleteConsent, types.CodeOutOfRange, types.CodeMissingReason:
		return http.StatusUnprocessableEntity
	case types.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
