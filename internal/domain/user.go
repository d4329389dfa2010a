package domain

import "time"

// Deactivation reasons recorded alongside DeactivatedAt.
const (
	DeactivationReasonInactivity = "inactivity"
	DeactivationReasonManual     = "manual"
)

// User is a registered account plus its lifecycle state. The pair
// (DeactivatedAt, DeactivationReason) is set exactly when IsActive is false;
// both are cleared on reactivation, together with LastReminderSent, so that a
// stale reminder from a previous inactive period can never suppress a new
// warning cycle.
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name               string     `gorm:"size:255;not null" json:"name"`
	IsAdmin            bool       `gorm:"not null;default:false" json:"is_admin"`
	EmailVerifiedAt    *time.Time `json:"email_verified_at,omitempty"`
	IsActive           bool       `gorm:"not null;default:true;index:idx_users_is_active" json:"is_active"`
	LastActivity       time.Time  `gorm:"not null" json:"last_activity"`
	LastReminderSent   *time.Time `json:"last_reminder_sent,omitempty"`
	DeactivatedAt      *time.Time `json:"deactivated_at,omitempty"`
	DeactivationReason string     `gorm:"size:32" json:"deactivation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
