package database

import (
	"strings"

	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

type SeedReport struct {
	AdminPromoted bool `json:"admin_promoted"`
	Noop          bool `json:"noop"`
}

// Seed promotes the bootstrap admin account if it exists. Everything else in
// the schema is created by user actions, so there is no default data to plant.
func Seed(db *gorm.DB, bootstrapAdminEmail string) error {
	_, err := SeedSync(db, bootstrapAdminEmail)
	return err
}

func SeedSync(db *gorm.DB, bootstrapAdminEmail string) (*SeedReport, error) {
	report := &SeedReport{}

	email := strings.TrimSpace(strings.ToLower(bootstrapAdminEmail))
	if email == "" {
		report.Noop = true
		return report, nil
	}

	var u domain.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			report.Noop = true
			return report, nil
		}
		return nil, err
	}
	if u.IsAdmin {
		report.Noop = true
		return report, nil
	}
	if err := db.Model(&u).Update("is_admin", true).Error; err != nil {
		return nil, err
	}
	report.AdminPromoted = true
	return report, nil
}
