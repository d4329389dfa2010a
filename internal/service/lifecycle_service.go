package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/domain"
	"github.com/moveout-labs/moveout-backend/internal/mailer"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
)

// LifecycleService owns manual account state transitions: deactivation,
// reactivation, full deletion, admin grants and the admin account listing.
// The sweeper drives the same state through its own batch path.
type LifecycleService interface {
	Get(ctx context.Context, caller Caller, targetID uint) (*domain.User, error)
	Deactivate(ctx context.Context, caller Caller, targetID uint) error
	Reactivate(ctx context.Context, caller Caller, targetID uint) error
	Delete(ctx context.Context, caller Caller, targetID uint) error
	SetAdminStatus(ctx context.Context, caller Caller, targetID uint, isAdmin bool) error
	ListAccounts(ctx context.Context, caller Caller, q repository.UserListQuery) (repository.PageResult[domain.User], error)
}

type lifecycleService struct {
	users       repository.UserRepository
	boxes       repository.BoxRepository
	contents    repository.BoxContentRepository
	labels      repository.InsuranceLabelRepository
	contacts    repository.ContactRepository
	sessions    repository.SessionRepository
	creds       repository.LocalCredentialRepository
	verifTokens repository.VerificationTokenRepository
	storage     StorageService
	mail        mailer.Mailer
	now         func() time.Time
}

func NewLifecycleService(
	users repository.UserRepository,
	boxes repository.BoxRepository,
	contents repository.BoxContentRepository,
	labels repository.InsuranceLabelRepository,
	contacts repository.ContactRepository,
	sessions repository.SessionRepository,
	creds repository.LocalCredentialRepository,
	verifTokens repository.VerificationTokenRepository,
	storage StorageService,
	mail mailer.Mailer,
) LifecycleService {
	return &lifecycleService{
		users:       users,
		boxes:       boxes,
		contents:    contents,
		labels:      labels,
		contacts:    contacts,
		sessions:    sessions,
		creds:       creds,
		verifTokens: verifTokens,
		storage:     storage,
		mail:        mail,
		now:         time.Now,
	}
}

func (s *lifecycleService) authorize(caller Caller, targetID uint) error {
	if !caller.authenticated() {
		return ErrUnauthenticated
	}
	if targetID == 0 {
		return ErrInvalidArgument
	}
	if !caller.CanManage(targetID) {
		return ErrPermissionDenied
	}
	return nil
}

func (s *lifecycleService) target(targetID uint) (*domain.User, error) {
	user, err := s.users.FindByID(targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *lifecycleService) Get(ctx context.Context, caller Caller, targetID uint) (*domain.User, error) {
	if err := s.authorize(caller, targetID); err != nil {
		return nil, err
	}
	return s.target(targetID)
}

func (s *lifecycleService) Deactivate(ctx context.Context, caller Caller, targetID uint) error {
	if err := s.authorize(caller, targetID); err != nil {
		return err
	}
	user, err := s.target(targetID)
	if err != nil {
		return err
	}
	if !user.IsActive {
		// Already inactive, nothing to do.
		return nil
	}
	if err := s.users.Deactivate(targetID, s.now().UTC(), domain.DeactivationReasonManual); err != nil {
		observability.RecordLifecycleTransition(ctx, "deactivate", "manual", "error")
		return err
	}
	observability.RecordLifecycleTransition(ctx, "deactivate", "manual", "success")

	if err := s.mail.SendDeactivationNotice(ctx, user.Email, user.Name); err != nil {
		observability.RecordNotification(ctx, "deactivation_notice", "failed")
		slog.WarnContext(ctx, "deactivation notice failed", "user_id", targetID, "error", err)
	} else {
		observability.RecordNotification(ctx, "deactivation_notice", "sent")
	}
	return nil
}

func (s *lifecycleService) Reactivate(ctx context.Context, caller Caller, targetID uint) error {
	if err := s.authorize(caller, targetID); err != nil {
		return err
	}
	user, err := s.target(targetID)
	if err != nil {
		return err
	}
	if user.IsActive {
		return nil
	}
	// Resetting last_activity keeps the next sweep from re-deactivating
	// immediately; clearing the reminder lets a fresh warning cycle run.
	if err := s.users.Reactivate(targetID, s.now().UTC()); err != nil {
		observability.RecordLifecycleTransition(ctx, "reactivate", "manual", "error")
		return err
	}
	observability.RecordLifecycleTransition(ctx, "reactivate", "manual", "success")
	return nil
}

// Delete cascades through everything the account owns. Stored objects are
// best-effort; database rows are required. The credential goes last so a
// partial failure leaves the account reachable for retry instead of orphaned.
func (s *lifecycleService) Delete(ctx context.Context, caller Caller, targetID uint) error {
	if err := s.authorize(caller, targetID); err != nil {
		return err
	}
	user, err := s.target(targetID)
	if err != nil {
		return err
	}

	removed, err := s.storage.DeleteUserObjects(ctx, targetID)
	if err != nil {
		slog.WarnContext(ctx, "stored object purge incomplete, continuing deletion",
			"user_id", targetID, "removed", removed, "error", err)
	}
	observability.RecordStorageObjectsRemoved(ctx, removed)

	steps := []struct {
		name string
		run  func() (int64, error)
	}{
		{"box_contents", func() (int64, error) { return s.contents.DeleteByOwner(targetID) }},
		{"boxes", func() (int64, error) { return s.boxes.DeleteByOwner(targetID) }},
		{"insurance_labels", func() (int64, error) { return s.labels.DeleteByOwner(targetID) }},
		{"contacts", func() (int64, error) { return s.contacts.DeleteByOwner(targetID) }},
		{"sessions", func() (int64, error) { return s.sessions.DeleteByUserID(targetID) }},
		{"verification_tokens", func() (int64, error) { return s.verifTokens.DeleteByUserID(targetID) }},
	}
	for _, step := range steps {
		rows, err := step.run()
		if err != nil {
			observability.RecordAccountDeletion(ctx, "failed")
			return fmt.Errorf("delete %s for user %d: %w", step.name, targetID, err)
		}
		observability.RecordDeletionCascadeRows(ctx, step.name, rows)
	}

	if err := s.users.DeleteByID(targetID); err != nil {
		observability.RecordAccountDeletion(ctx, "failed")
		return fmt.Errorf("delete account %d: %w", targetID, err)
	}
	if err := s.creds.DeleteByUserID(targetID); err != nil {
		observability.RecordAccountDeletion(ctx, "failed")
		return fmt.Errorf("delete credential for user %d: %w", targetID, err)
	}
	observability.RecordAccountDeletion(ctx, "success")

	if err := s.mail.SendDeletionConfirmation(ctx, user.Email, user.Name); err != nil {
		observability.RecordNotification(ctx, "deletion_confirmation", "failed")
		slog.WarnContext(ctx, "deletion confirmation failed", "user_id", targetID, "error", err)
	} else {
		observability.RecordNotification(ctx, "deletion_confirmation", "sent")
	}
	return nil
}

func (s *lifecycleService) SetAdminStatus(ctx context.Context, caller Caller, targetID uint, isAdmin bool) error {
	if !caller.authenticated() {
		return ErrUnauthenticated
	}
	if !caller.IsAdmin {
		return ErrPermissionDenied
	}
	if targetID == 0 {
		return ErrInvalidArgument
	}
	if err := s.users.SetAdmin(targetID, isAdmin); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *lifecycleService) ListAccounts(ctx context.Context, caller Caller, q repository.UserListQuery) (repository.PageResult[domain.User], error) {
	if !caller.authenticated() {
		return repository.PageResult[domain.User]{}, ErrUnauthenticated
	}
	if !caller.IsAdmin {
		return repository.PageResult[domain.User]{}, ErrPermissionDenied
	}
	return s.users.ListPaged(q)
}
