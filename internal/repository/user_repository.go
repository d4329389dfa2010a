package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// SweepAction is a state transition computed by the inactivity sweeper.
type SweepAction string

const (
	SweepDeactivate SweepAction = "deactivate"
	SweepRemind     SweepAction = "remind"
)

// SweepChange is one pending account mutation from a sweep run.
type SweepChange struct {
	UserID uint
	Action SweepAction
	At     time.Time
}

type UserListQuery struct {
	PageRequest
	SortBy    string
	SortOrder string
	Email     string
	Active    *bool
}

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
	// TouchActivity bumps last_activity without touching any other field.
	TouchActivity(id uint, at time.Time) error
	// ListActive returns every account with is_active = true; the sweeper's
	// working set.
	ListActive() ([]domain.User, error)
	ListPaged(q UserListQuery) (PageResult[domain.User], error)
	SetAdmin(id uint, isAdmin bool) error
	MarkEmailVerified(id uint, at time.Time) error
	Deactivate(id uint, at time.Time, reason string) error
	Reactivate(id uint, at time.Time) error
	DeleteByID(id uint) error
	// ApplySweep commits every change in a single transaction. Either all
	// transitions of a sweep run persist or none do.
	ApplySweep(ctx context.Context, changes []SweepChange) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error { return r.db.Create(user).Error }
func (r *GormUserRepository) Update(user *domain.User) error { return r.db.Save(user).Error }

func (r *GormUserRepository) TouchActivity(id uint, at time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Update("last_activity", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) ListActive() ([]domain.User, error) {
	var users []domain.User
	err := r.db.Where("is_active = ?", true).Find(&users).Error
	return users, err
}

func (r *GormUserRepository) ListPaged(q UserListQuery) (PageResult[domain.User], error) {
	page := normalizePageRequest(q.PageRequest)
	tx := r.db.Model(&domain.User{})
	if q.Email != "" {
		tx = tx.Where("email LIKE ?", "%"+q.Email+"%")
	}
	if q.Active != nil {
		tx = tx.Where("is_active = ?", *q.Active)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return PageResult[domain.User]{}, err
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := q.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	var users []domain.User
	err := tx.Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Offset((page.Page - 1) * page.PageSize).
		Limit(page.PageSize).
		Find(&users).Error
	if err != nil {
		return PageResult[domain.User]{}, err
	}
	return PageResult[domain.User]{
		Items:      users,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}

func (r *GormUserRepository) SetAdmin(id uint, isAdmin bool) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) MarkEmailVerified(id uint, at time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Update("email_verified_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) Deactivate(id uint, at time.Time, reason string) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"is_active":           false,
		"deactivated_at":      at,
		"deactivation_reason": reason,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) Reactivate(id uint, at time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"is_active":           true,
		"deactivated_at":      nil,
		"deactivation_reason": "",
		"last_reminder_sent":  nil,
		"last_activity":       at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) DeleteByID(id uint) error {
	res := r.db.Delete(&domain.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) ApplySweep(ctx context.Context, changes []SweepChange) error {
	if len(changes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			var err error
			switch c.Action {
			case SweepDeactivate:
				err = tx.Model(&domain.User{}).Where("id = ? AND is_active = ?", c.UserID, true).
					Updates(map[string]any{
						"is_active":           false,
						"deactivated_at":      c.At,
						"deactivation_reason": domain.DeactivationReasonInactivity,
					}).Error
			case SweepRemind:
				err = tx.Model(&domain.User{}).Where("id = ? AND is_active = ?", c.UserID, true).
					Update("last_reminder_sent", c.At).Error
			default:
				err = fmt.Errorf("unknown sweep action %q", c.Action)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
