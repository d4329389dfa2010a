package repository

import (
	"errors"

	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrBoxNotFound     = errors.New("box not found")
	ErrContentNotFound = errors.New("box content not found")
)

type BoxRepository interface {
	Create(box *domain.Box) error
	Update(box *domain.Box) error
	FindByID(id uint) (*domain.Box, error)
	ListByOwner(ownerID uint) ([]domain.Box, error)
	DeleteByID(id uint) error
	DeleteByOwner(ownerID uint) (int64, error)
}

type GormBoxRepository struct{ db *gorm.DB }

func NewBoxRepository(db *gorm.DB) BoxRepository { return &GormBoxRepository{db: db} }

func (r *GormBoxRepository) Create(box *domain.Box) error { return r.db.Create(box).Error }
func (r *GormBoxRepository) Update(box *domain.Box) error { return r.db.Save(box).Error }

func (r *GormBoxRepository) FindByID(id uint) (*domain.Box, error) {
	var b domain.Box
	if err := r.db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *GormBoxRepository) ListByOwner(ownerID uint) ([]domain.Box, error) {
	var boxes []domain.Box
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&boxes).Error
	return boxes, err
}

func (r *GormBoxRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&domain.Box{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBoxNotFound
	}
	return nil
}

func (r *GormBoxRepository) DeleteByOwner(ownerID uint) (int64, error) {
	res := r.db.Where("owner_id = ?", ownerID).Delete(&domain.Box{})
	return res.RowsAffected, res.Error
}

type BoxContentRepository interface {
	Create(content *domain.BoxContent) error
	FindByID(id uint) (*domain.BoxContent, error)
	ListByBox(boxID uint) ([]domain.BoxContent, error)
	DeleteByID(id uint) error
	DeleteByBox(boxID uint) (int64, error)
	DeleteByOwner(ownerID uint) (int64, error)
}

type GormBoxContentRepository struct{ db *gorm.DB }

func NewBoxContentRepository(db *gorm.DB) BoxContentRepository {
	return &GormBoxContentRepository{db: db}
}

func (r *GormBoxContentRepository) Create(content *domain.BoxContent) error {
	return r.db.Create(content).Error
}

func (r *GormBoxContentRepository) FindByID(id uint) (*domain.BoxContent, error) {
	var c domain.BoxContent
	if err := r.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *GormBoxContentRepository) ListByBox(boxID uint) ([]domain.BoxContent, error) {
	var contents []domain.BoxContent
	err := r.db.Where("box_id = ?", boxID).Order("created_at asc").Find(&contents).Error
	return contents, err
}

func (r *GormBoxContentRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&domain.BoxContent{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContentNotFound
	}
	return nil
}

func (r *GormBoxContentRepository) DeleteByBox(boxID uint) (int64, error) {
	res := r.db.Where("box_id = ?", boxID).Delete(&domain.BoxContent{})
	return res.RowsAffected, res.Error
}

func (r *GormBoxContentRepository) DeleteByOwner(ownerID uint) (int64, error) {
	res := r.db.Where("owner_id = ?", ownerID).Delete(&domain.BoxContent{})
	return res.RowsAffected, res.Error
}
