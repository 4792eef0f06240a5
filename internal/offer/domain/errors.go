package domain

import "errors"

var (
	ErrOfferNotFound          = errors.New("offer_not_found")
	ErrOfferExists            = errors.New("offer_exists")
	ErrOfferAlreadyDecided    = errors.New("offer_already_decided")
	ErrProjectNotOpen         = errors.New("project_not_open")
	ErrProjectAlreadyAccepted = errors.New("project_already_accepted")
	ErrDecisionInProgress     = errors.New("decision_in_progress")
	ErrLockUnavailable        = errors.New("lock_unavailable")
	ErrInvalidPrice           = errors.New("invalid_price")
	ErrInvalidDeliveryTime    = errors.New("invalid_delivery_time")
	ErrInvalidMessage         = errors.New("invalid_message")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidProject         = errors.New("invalid_project")
	ErrInvalidPageToken       = errors.New("invalid_page_token")
)
