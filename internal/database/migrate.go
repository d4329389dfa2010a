package database

import (
	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.LocalCredential{},
		&domain.Session{},
		&domain.VerificationToken{},
		&domain.Box{},
		&domain.BoxContent{},
		&domain.InsuranceLabel{},
		&domain.Contact{},
	)
}
