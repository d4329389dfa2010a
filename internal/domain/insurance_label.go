package domain

import "time"

// InsuranceLabel documents an insured item for a user's insurance company.
type InsuranceLabel struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerID      uint      `gorm:"not null;index:idx_insurance_labels_owner" json:"owner_id"`
	ItemName     string    `gorm:"size:255;not null" json:"item_name"`
	Description  string    `gorm:"size:1024" json:"description"`
	InsuredValue int64     `gorm:"not null" json:"insured_value"`
	Currency     string    `gorm:"size:8;not null;default:SEK" json:"currency"`
	Company      string    `gorm:"size:255" json:"company"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
