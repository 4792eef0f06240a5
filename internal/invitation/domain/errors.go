package domain

import "errors"

var (
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidUserID      = errors.New("invalid_user_id")
	ErrOpenLinksDisabled  = errors.New("open_links_disabled")
	ErrInvitationNotFound = errors.New("invitation_not_found")
	ErrIdentityNotFound   = errors.New("identity_not_found")
	ErrProfileExists      = errors.New("profile_exists")
	ErrEmailDelivery      = errors.New("email_delivery_failed")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
)

const (
	ReasonUnknown = "unknown"
	ReasonUsed    = "used"
	ReasonExpired = "expired"
)

// InvalidTokenError explains why a token cannot be used. It matches ErrInvalidToken.
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string {
	return "invalid_token: " + e.Reason
}

func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

// TokenReason extracts the reason from err, or "" when err is not a token error.
func TokenReason(err error) string {
	var tokenErr *InvalidTokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Reason
	}
	return ""
}
