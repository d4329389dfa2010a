package repository

import (
	"errors"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrVerificationTokenNotFound = errors.New("verification token not found")

type VerificationTokenRepository interface {
	Create(t *domain.VerificationToken) error
	// FindValidByHash returns the token for the digest if it is unused and
	// not yet expired.
	FindValidByHash(hash string) (*domain.VerificationToken, error)
	MarkUsed(id uint, at time.Time) error
	DeleteByUserID(userID uint) (int64, error)
	CleanupExpired() (int64, error)
}

type GormVerificationTokenRepository struct{ db *gorm.DB }

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &GormVerificationTokenRepository{db: db}
}

func (r *GormVerificationTokenRepository) Create(t *domain.VerificationToken) error {
	return r.db.Create(t).Error
}

func (r *GormVerificationTokenRepository) FindValidByHash(hash string) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.db.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", hash, time.Now()).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *GormVerificationTokenRepository) MarkUsed(id uint, at time.Time) error {
	res := r.db.Model(&domain.VerificationToken{}).Where("id = ? AND used_at IS NULL", id).Update("used_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVerificationTokenNotFound
	}
	return nil
}

func (r *GormVerificationTokenRepository) DeleteByUserID(userID uint) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&domain.VerificationToken{})
	return res.RowsAffected, res.Error
}

func (r *GormVerificationTokenRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now()).Delete(&domain.VerificationToken{})
	return res.RowsAffected, res.Error
}
