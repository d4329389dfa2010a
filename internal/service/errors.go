package service

import "errors"

// Error taxonomy surfaced to handlers. Handlers map these onto HTTP statuses;
// anything else is treated as internal.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID  uint
	IsAdmin bool
}

// CanManage reports whether the caller may operate on the target account:
// the caller is the target, or the caller is an admin.
func (c Caller) CanManage(targetID uint) bool {
	return c.UserID == targetID || c.IsAdmin
}

func (c Caller) authenticated() bool { return c.UserID != 0 }
