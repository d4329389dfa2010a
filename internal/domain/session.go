package domain

import "time"

// Session is a refresh-token grant. Only the peppered hash of the token is
// stored.
type Session struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index:idx_sessions_user" json:"user_id"`
	RefreshTokenHash string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	UserAgent        string     `gorm:"size:512" json:"user_agent"`
	IPAddress        string     `gorm:"size:64" json:"ip_address"`
	ExpiresAt        time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
