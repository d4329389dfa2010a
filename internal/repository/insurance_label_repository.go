package repository

import (
	"errors"

	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrLabelNotFound = errors.New("insurance label not found")

type InsuranceLabelRepository interface {
	Create(label *domain.InsuranceLabel) error
	FindByID(id uint) (*domain.InsuranceLabel, error)
	ListByOwner(ownerID uint) ([]domain.InsuranceLabel, error)
	DeleteByID(id uint) error
	DeleteByOwner(ownerID uint) (int64, error)
}

type GormInsuranceLabelRepository struct{ db *gorm.DB }

func NewInsuranceLabelRepository(db *gorm.DB) InsuranceLabelRepository {
	return &GormInsuranceLabelRepository{db: db}
}

func (r *GormInsuranceLabelRepository) Create(label *domain.InsuranceLabel) error {
	return r.db.Create(label).Error
}

func (r *GormInsuranceLabelRepository) FindByID(id uint) (*domain.InsuranceLabel, error) {
	var l domain.InsuranceLabel
	if err := r.db.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLabelNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *GormInsuranceLabelRepository) ListByOwner(ownerID uint) ([]domain.InsuranceLabel, error) {
	var labels []domain.InsuranceLabel
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&labels).Error
	return labels, err
}

func (r *GormInsuranceLabelRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&domain.InsuranceLabel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLabelNotFound
	}
	return nil
}

func (r *GormInsuranceLabelRepository) DeleteByOwner(ownerID uint) (int64, error) {
	res := r.db.Where("owner_id = ?", ownerID).Delete(&domain.InsuranceLabel{})
	return res.RowsAffected, res.Error
}
