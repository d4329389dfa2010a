package domain

import "time"

// Content types accepted for box contents.
const (
	ContentTypeText     = "text"
	ContentTypeAudio    = "audio"
	ContentTypeImage    = "image"
	ContentTypeDocument = "document"
)

// Box is a QR-labelled moving box owned by a user. DesignObjectKey points at
// the rendered label SVG in object storage; QRCodeURL is the public scan
// target recorded when the label was generated.
type Box struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OwnerID         uint      `gorm:"not null;index:idx_boxes_owner" json:"owner_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"size:1024" json:"description"`
	DesignObjectKey string    `gorm:"size:1024" json:"design_object_key,omitempty"`
	QRCodeURL       string    `gorm:"size:1024" json:"qr_code_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BoxContent is a single item attached to a box. Text contents carry their
// value inline; file-backed contents carry the object storage key.
type BoxContent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BoxID     uint      `gorm:"not null;index:idx_box_contents_box" json:"box_id"`
	OwnerID   uint      `gorm:"not null;index:idx_box_contents_owner" json:"owner_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Value     string    `gorm:"size:4096" json:"value,omitempty"`
	ObjectKey string    `gorm:"size:1024" json:"object_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidContentType(t string) bool {
	switch t {
	case ContentTypeText, ContentTypeAudio, ContentTypeImage, ContentTypeDocument:
		return true
	default:
		return false
	}
}
