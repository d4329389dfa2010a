package domain

import "time"

// Contact is an address-book entry used when sharing labels.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index:idx_contacts_owner" json:"owner_id"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
