package repository

import (
	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(contact *domain.Contact) error
	ListByOwner(ownerID uint) ([]domain.Contact, error)
	DeleteByOwner(ownerID uint) (int64, error)
}

type GormContactRepository struct{ db *gorm.DB }

func NewContactRepository(db *gorm.DB) ContactRepository { return &GormContactRepository{db: db} }

func (r *GormContactRepository) Create(contact *domain.Contact) error {
	return r.db.Create(contact).Error
}

func (r *GormContactRepository) ListByOwner(ownerID uint) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.Where("owner_id = ?", ownerID).Order("name asc").Find(&contacts).Error
	return contacts, err
}

func (r *GormContactRepository) DeleteByOwner(ownerID uint) (int64, error) {
	res := r.db.Where("owner_id = ?", ownerID).Delete(&domain.Contact{})
	return res.RowsAffected, res.Error
}
