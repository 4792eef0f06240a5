package server

import (
	"errors"
	"net/http"
	"strings"

	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	financialdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	invitationdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	offerdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/domain"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	signupdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/signup/domain"
	"github.com/gin-gonic/gin"
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
	Reason  string            `json:"reason,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidID          = errors.New("invalid_id")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
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

// abortPlain answers with the mapped status and a plain-text body, the
// contract of the /functions endpoints.
func abortPlain(c *gin.Context, err error) {
	status, payload := mapError(err)
	_ = c.Error(err)
	message := payload.Message
	switch {
	case payload.Reason != "":
		message = payload.Type + ": " + payload.Reason
	case len(payload.Errors) > 0:
		message = payload.Errors[0].Code
	}
	c.String(status, message)
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

	if errors.Is(err, invitationdomain.ErrInvalidToken) {
		reason := invitationdomain.TokenReason(err)
		if reason == "" {
			reason = invitationdomain.ReasonUnknown
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_token",
			Message: "invitation link is " + reasonText(reason),
			Reason:  reason,
		}
	}

	if errors.Is(err, signupdomain.ErrPartialCompletion) {
		return http.StatusConflict, errorPayload{
			Type:    "partial_completion",
			Message: signupdomain.PartialCompletionMessage,
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
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, invitationdomain.ErrEmailDelivery):
		return http.StatusBadGateway, errorPayload{
			Type:    "network_error",
			Message: "invitation email could not be delivered",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, offerdomain.ErrLockUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
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
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, signupdomain.ErrInvalidRequest) ||
		errors.Is(err, signupdomain.ErrEmailMismatch) ||
		errors.Is(err, authdomain.ErrInvalidEmail) ||
		errors.Is(err, authdomain.ErrWeakPassword) ||
		errors.Is(err, profiledomain.ErrInvalidName) ||
		errors.Is(err, profiledomain.ErrInvalidPlatform) ||
		errors.Is(err, profiledomain.ErrInvalidAvatarURL) ||
		errors.Is(err, invitationdomain.ErrInvalidRole) ||
		errors.Is(err, invitationdomain.ErrInvalidEmail) ||
		errors.Is(err, invitationdomain.ErrInvalidUserID) ||
		errors.Is(err, invitationdomain.ErrInvalidPageToken) ||
		errors.Is(err, projectdomain.ErrInvalidTitle) ||
		errors.Is(err, projectdomain.ErrInvalidBudget) ||
		errors.Is(err, projectdomain.ErrInvalidDeadline) ||
		errors.Is(err, projectdomain.ErrInvalidStatus) ||
		errors.Is(err, projectdomain.ErrInvalidCategory) ||
		errors.Is(err, projectdomain.ErrInvalidName) ||
		errors.Is(err, projectdomain.ErrInvalidPageToken) ||
		errors.Is(err, offerdomain.ErrInvalidPrice) ||
		errors.Is(err, offerdomain.ErrInvalidDeliveryTime) ||
		errors.Is(err, offerdomain.ErrInvalidMessage) ||
		errors.Is(err, offerdomain.ErrInvalidStatus) ||
		errors.Is(err, offerdomain.ErrInvalidProject) ||
		errors.Is(err, offerdomain.ErrInvalidPageToken) ||
		errors.Is(err, financialdomain.ErrInvalidAmount) ||
		errors.Is(err, financialdomain.ErrInvalidDescription) ||
		errors.Is(err, financialdomain.ErrInvalidPrice) ||
		errors.Is(err, auditdomain.ErrInvalidAction) ||
		errors.Is(err, auditdomain.ErrInvalidActor) ||
		errors.Is(err, auditdomain.ErrInvalidPageToken)
}

func isUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, authdomain.ErrInvalidCredentials) ||
		errors.Is(err, authdomain.ErrInvalidSession) ||
		errors.Is(err, authdomain.ErrSessionNotFound) ||
		errors.Is(err, authdomain.ErrSessionExpired) ||
		errors.Is(err, authdomain.ErrSessionRevoked) ||
		errors.Is(err, profiledomain.ErrInvalidSession)
}

func isForbiddenError(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, authorization.ErrForbidden) ||
		errors.Is(err, auditdomain.ErrForbidden) ||
		errors.Is(err, profiledomain.ErrProfileRequired) ||
		errors.Is(err, invitationdomain.ErrOpenLinksDisabled)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, authdomain.ErrIdentityNotFound) ||
		errors.Is(err, profiledomain.ErrProfileNotFound) ||
		errors.Is(err, invitationdomain.ErrInvitationNotFound) ||
		errors.Is(err, invitationdomain.ErrIdentityNotFound) ||
		errors.Is(err, projectdomain.ErrProjectNotFound) ||
		errors.Is(err, projectdomain.ErrCategoryNotFound) ||
		errors.Is(err, offerdomain.ErrOfferNotFound) ||
		errors.Is(err, financialdomain.ErrFinancialNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

func isConflictError(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, authdomain.ErrIdentityExists) ||
		errors.Is(err, profiledomain.ErrProfileExists) ||
		errors.Is(err, profiledomain.ErrInvitationPending) ||
		errors.Is(err, invitationdomain.ErrProfileExists) ||
		errors.Is(err, projectdomain.ErrCategoryExists) ||
		errors.Is(err, projectdomain.ErrProjectTerminal) ||
		errors.Is(err, projectdomain.ErrProjectHasLedger) ||
		errors.Is(err, projectdomain.ErrInvalidTransition) ||
		errors.Is(err, offerdomain.ErrOfferExists) ||
		errors.Is(err, offerdomain.ErrOfferAlreadyDecided) ||
		errors.Is(err, offerdomain.ErrProjectNotOpen) ||
		errors.Is(err, offerdomain.ErrProjectAlreadyAccepted) ||
		errors.Is(err, offerdomain.ErrDecisionInProgress) ||
		errors.Is(err, financialdomain.ErrFinancialExists)
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, profiledomain.ErrInvitationPending):
		return "an invitation is pending for this email, open the invitation link to finish signup"
	default:
		return strings.ReplaceAll(rootMessage(err), "_", " ")
	}
}

// rootMessage returns the innermost sentinel text of err.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func reasonText(reason string) string {
	switch reason {
	case invitationdomain.ReasonUsed:
		return "already used"
	case invitationdomain.ReasonExpired:
		return "expired"
	default:
		return "invalid"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, signupdomain.ErrInvalidRequest):
		return "invalid_request"
	default:
		return rootMessage(err)
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "weak_password":
		return "password is too short"
	case "email_mismatch":
		return "email does not match the invitation"
	default:
		return "invalid value"
	}
}
