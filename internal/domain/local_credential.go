package domain

import "time"

// LocalCredential stores the password hash for email/password sign-in.
type LocalCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PasswordHash string    `gorm:"size:512;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
