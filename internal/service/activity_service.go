package service

import (
	"context"
	"errors"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
)

// ActivityService timestamps the most recent user interaction. The sweeper
// reads these timestamps to decide inactivity transitions.
type ActivityService interface {
	// Record sets the caller's last activity to the current server time.
	// Idempotent and safe to call redundantly.
	Record(ctx context.Context, caller Caller) error
}

type activityService struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewActivityService(users repository.UserRepository) ActivityService {
	return &activityService{users: users, now: time.Now}
}

func (s *activityService) Record(ctx context.Context, caller Caller) error {
	if !caller.authenticated() {
		observability.RecordActivity(ctx, "unauthenticated")
		return ErrUnauthenticated
	}
	if err := s.users.TouchActivity(caller.UserID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordActivity(ctx, "not_found")
			return ErrNotFound
		}
		observability.RecordActivity(ctx, "error")
		return err
	}
	observability.RecordActivity(ctx, "success")
	return nil
}
