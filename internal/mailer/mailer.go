// Package mailer delivers lifecycle notifications: verification mail at
// signup, inactivity warnings, deactivation notices and deletion
// confirmations.
package mailer

import (
	"context"
	"time"
)

type Mailer interface {
	// SendEmailVerification carries the single-use token issued at
	// registration.
	SendEmailVerification(ctx context.Context, email, name, token string) error
	// SendInactivityWarning tells the user how long until their account is
	// deactivated for inactivity.
	SendInactivityWarning(ctx context.Context, email, name string, remaining time.Duration) error
	SendDeactivationNotice(ctx context.Context, email, name string) error
	SendDeletionConfirmation(ctx context.Context, email, name string) error
}

// RemainingMinutes converts the time left before deactivation into whole
// minutes for the warning message. Always at least 1 so a user on the edge of
// the threshold never reads "0 minutes".
func RemainingMinutes(remaining time.Duration) int {
	minutes := int(remaining / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}
