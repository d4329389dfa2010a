package repository

import (
	"errors"

	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrCredentialNotFound = errors.New("local credential not found")

type LocalCredentialRepository interface {
	Create(c *domain.LocalCredential) error
	FindByUserID(userID uint) (*domain.LocalCredential, error)
	DeleteByUserID(userID uint) error
}

type GormLocalCredentialRepository struct{ db *gorm.DB }

func NewLocalCredentialRepository(db *gorm.DB) LocalCredentialRepository {
	return &GormLocalCredentialRepository{db: db}
}

func (r *GormLocalCredentialRepository) Create(c *domain.LocalCredential) error {
	return r.db.Create(c).Error
}

func (r *GormLocalCredentialRepository) FindByUserID(userID uint) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	if err := r.db.Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *GormLocalCredentialRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.LocalCredential{}).Error
}
