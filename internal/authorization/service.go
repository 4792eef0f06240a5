package authorization

import (
	"context"
	"errors"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service decides whether a session may perform action on a class of objects.
// Ownership of individual rows is checked by the owning service.
type Service interface {
	Authorize(ctx context.Context, sess session.Session, object string, action string) error
}
