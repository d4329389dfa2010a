package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/domain"
	"github.com/moveout-labs/moveout-backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeStorage struct {
	purged    []uint
	purgeErr  error
	removed   int64
	deleted   []string
	deleteErr error
}

func (f *fakeStorage) UploadBoxMedia(context.Context, uint, io.Reader, int64, string) (string, error) {
	return "", nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _ uint, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func (f *fakeStorage) GenerateObjectURL(context.Context, string) (string, error) { return "", nil }

func (f *fakeStorage) DeleteUserObjects(_ context.Context, userID uint) (int64, error) {
	f.purged = append(f.purged, userID)
	return f.removed, f.purgeErr
}

type fakeMailer struct {
	verifications []string
	verifyTokens  []string
	warnings      []string
	deactivations []string
	deletions     []string
	err           error
}

func (f *fakeMailer) SendEmailVerification(_ context.Context, email, _, token string) error {
	f.verifications = append(f.verifications, email)
	f.verifyTokens = append(f.verifyTokens, token)
	return f.err
}

func (f *fakeMailer) SendInactivityWarning(_ context.Context, email, _ string, _ time.Duration) error {
	f.warnings = append(f.warnings, email)
	return f.err
}

func (f *fakeMailer) SendDeactivationNotice(_ context.Context, email, _ string) error {
	f.deactivations = append(f.deactivations, email)
	return f.err
}

func (f *fakeMailer) SendDeletionConfirmation(_ context.Context, email, _ string) error {
	f.deletions = append(f.deletions, email)
	return f.err
}

type lifecycleFixture struct {
	svc         LifecycleService
	users       repository.UserRepository
	boxes       repository.BoxRepository
	contents    repository.BoxContentRepository
	labels      repository.InsuranceLabelRepository
	contacts    repository.ContactRepository
	sessions    repository.SessionRepository
	creds       repository.LocalCredentialRepository
	verifTokens repository.VerificationTokenRepository
	storage     *fakeStorage
	mail        *fakeMailer
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{}, &domain.LocalCredential{}, &domain.Session{}, &domain.VerificationToken{},
		&domain.Box{}, &domain.BoxContent{}, &domain.InsuranceLabel{}, &domain.Contact{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &lifecycleFixture{
		users:       repository.NewUserRepository(db),
		boxes:       repository.NewBoxRepository(db),
		contents:    repository.NewBoxContentRepository(db),
		labels:      repository.NewInsuranceLabelRepository(db),
		contacts:    repository.NewContactRepository(db),
		sessions:    repository.NewSessionRepository(db),
		creds:       repository.NewLocalCredentialRepository(db),
		verifTokens: repository.NewVerificationTokenRepository(db),
		storage:     &fakeStorage{},
		mail:        &fakeMailer{},
	}
	f.svc = NewLifecycleService(f.users, f.boxes, f.contents, f.labels, f.contacts, f.sessions, f.creds, f.verifTokens, f.storage, f.mail)
	return f
}

func (f *lifecycleFixture) addUser(t *testing.T, email string, admin bool) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "User", IsAdmin: admin, IsActive: true, LastActivity: time.Now()}
	if err := f.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestLifecycleAuthorization(t *testing.T) {
	f := newLifecycleFixture(t)
	owner := f.addUser(t, "owner@example.com", false)
	other := f.addUser(t, "other@example.com", false)
	admin := f.addUser(t, "admin@example.com", true)
	ctx := context.Background()

	// A non-admin cannot touch someone else's account.
	if err := f.svc.Deactivate(ctx, Caller{UserID: other.ID}, owner.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("cross-user deactivate error = %v, want ErrPermissionDenied", err)
	}
	if err := f.svc.Delete(ctx, Caller{UserID: other.ID}, owner.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("cross-user delete error = %v, want ErrPermissionDenied", err)
	}

	// Unauthenticated callers are rejected before any lookup.
	if err := f.svc.Deactivate(ctx, Caller{}, owner.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("unauthenticated error = %v, want ErrUnauthenticated", err)
	}

	// Self and admin are both allowed.
	if err := f.svc.Deactivate(ctx, Caller{UserID: owner.ID}, owner.ID); err != nil {
		t.Errorf("self deactivate: %v", err)
	}
	if err := f.svc.Reactivate(ctx, Caller{UserID: admin.ID, IsAdmin: true}, owner.ID); err != nil {
		t.Errorf("admin reactivate: %v", err)
	}
}

func TestLifecycleDeactivateSetsStateAndNotifies(t *testing.T) {
	f := newLifecycleFixture(t)
	user := f.addUser(t, "alice@example.com", false)
	ctx := context.Background()

	if err := f.svc.Deactivate(ctx, Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	got, _ := f.users.FindByID(user.ID)
	if got.IsActive || got.DeactivatedAt == nil || got.DeactivationReason != domain.DeactivationReasonManual {
		t.Errorf("state after deactivate: active=%v at=%v reason=%q", got.IsActive, got.DeactivatedAt, got.DeactivationReason)
	}
	if len(f.mail.deactivations) != 1 || f.mail.deactivations[0] != "alice@example.com" {
		t.Errorf("deactivation notices = %v", f.mail.deactivations)
	}

	// Second call is an idempotent no-op: no second notice.
	if err := f.svc.Deactivate(ctx, Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("repeat Deactivate: %v", err)
	}
	if len(f.mail.deactivations) != 1 {
		t.Errorf("repeat deactivate sent another notice: %v", f.mail.deactivations)
	}
}

func TestLifecycleDeactivateSurvivesMailFailure(t *testing.T) {
	f := newLifecycleFixture(t)
	f.mail.err = errors.New("smtp down")
	user := f.addUser(t, "alice@example.com", false)

	if err := f.svc.Deactivate(context.Background(), Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("Deactivate with failing mail: %v", err)
	}
	got, _ := f.users.FindByID(user.ID)
	if got.IsActive {
		t.Error("state change rolled back by mail failure")
	}
}

func TestLifecycleReactivateResetsSweepState(t *testing.T) {
	f := newLifecycleFixture(t)
	user := f.addUser(t, "alice@example.com", false)
	ctx := context.Background()

	if err := f.svc.Deactivate(ctx, Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	reminded := time.Now().Add(-time.Hour)
	got, _ := f.users.FindByID(user.ID)
	got.LastReminderSent = &reminded
	if err := f.users.Update(got); err != nil {
		t.Fatalf("set reminder: %v", err)
	}

	before := time.Now()
	if err := f.svc.Reactivate(ctx, Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}

	got, _ = f.users.FindByID(user.ID)
	if !got.IsActive || got.DeactivatedAt != nil || got.DeactivationReason != "" {
		t.Errorf("state after reactivate: active=%v at=%v reason=%q", got.IsActive, got.DeactivatedAt, got.DeactivationReason)
	}
	if got.LastReminderSent != nil {
		t.Error("reminder timestamp survived reactivation")
	}
	if got.LastActivity.Before(before.Add(-time.Second)) {
		t.Errorf("last activity not reset: %v", got.LastActivity)
	}

	// Idempotent on an already-active account.
	if err := f.svc.Reactivate(ctx, Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("repeat Reactivate: %v", err)
	}
}

func TestLifecycleDeleteCascades(t *testing.T) {
	f := newLifecycleFixture(t)
	user := f.addUser(t, "alice@example.com", false)
	ctx := context.Background()

	box := &domain.Box{OwnerID: user.ID, Name: "Kitchen"}
	if err := f.boxes.Create(box); err != nil {
		t.Fatalf("create box: %v", err)
	}
	if err := f.contents.Create(&domain.BoxContent{BoxID: box.ID, OwnerID: user.ID, Type: domain.ContentTypeText, Value: "plates"}); err != nil {
		t.Fatalf("create content: %v", err)
	}
	if err := f.labels.Create(&domain.InsuranceLabel{OwnerID: user.ID, ItemName: "TV", InsuredValue: 100, Currency: "SEK"}); err != nil {
		t.Fatalf("create label: %v", err)
	}
	if err := f.contacts.Create(&domain.Contact{OwnerID: user.ID, Email: "f@e.c", Name: "F"}); err != nil {
		t.Fatalf("create contact: %v", err)
	}
	if err := f.creds.Create(&domain.LocalCredential{UserID: user.ID, PasswordHash: "x"}); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	if err := f.sessions.Create(&domain.Session{UserID: user.ID, RefreshTokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := f.verifTokens.Create(&domain.VerificationToken{UserID: user.ID, TokenHash: "vt", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("create verification token: %v", err)
	}
	f.storage.removed = 3

	if err := f.svc.Delete(ctx, Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(f.storage.purged) != 1 || f.storage.purged[0] != user.ID {
		t.Errorf("storage purge calls = %v", f.storage.purged)
	}
	if _, err := f.users.FindByID(user.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("account still present: %v", err)
	}
	if _, err := f.creds.FindByUserID(user.ID); !errors.Is(err, repository.ErrCredentialNotFound) {
		t.Errorf("credential still present: %v", err)
	}
	if boxes, _ := f.boxes.ListByOwner(user.ID); len(boxes) != 0 {
		t.Errorf("boxes still present: %d", len(boxes))
	}
	if labels, _ := f.labels.ListByOwner(user.ID); len(labels) != 0 {
		t.Errorf("labels still present: %d", len(labels))
	}
	if contacts, _ := f.contacts.ListByOwner(user.ID); len(contacts) != 0 {
		t.Errorf("contacts still present: %d", len(contacts))
	}
	if _, err := f.verifTokens.FindValidByHash("vt"); !errors.Is(err, repository.ErrVerificationTokenNotFound) {
		t.Errorf("verification token still present: %v", err)
	}
	if len(f.mail.deletions) != 1 {
		t.Errorf("deletion confirmations = %v", f.mail.deletions)
	}
}

func TestLifecycleDeleteContinuesWhenStoragePurgeFails(t *testing.T) {
	f := newLifecycleFixture(t)
	user := f.addUser(t, "alice@example.com", false)
	f.storage.purgeErr = errors.New("minio unavailable")

	if err := f.svc.Delete(context.Background(), Caller{UserID: user.ID}, user.ID); err != nil {
		t.Fatalf("Delete with failing storage: %v", err)
	}
	if _, err := f.users.FindByID(user.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Error("account survived deletion")
	}
}

func TestLifecycleDeleteMissingTarget(t *testing.T) {
	f := newLifecycleFixture(t)
	admin := f.addUser(t, "admin@example.com", true)

	err := f.svc.Delete(context.Background(), Caller{UserID: admin.ID, IsAdmin: true}, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing target error = %v, want ErrNotFound", err)
	}
}

func TestLifecycleAdminOnlyOperations(t *testing.T) {
	f := newLifecycleFixture(t)
	user := f.addUser(t, "user@example.com", false)
	admin := f.addUser(t, "admin@example.com", true)
	ctx := context.Background()

	if err := f.svc.SetAdminStatus(ctx, Caller{UserID: user.ID}, user.ID, true); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("self-promotion error = %v, want ErrPermissionDenied", err)
	}
	if _, err := f.svc.ListAccounts(ctx, Caller{UserID: user.ID}, repository.UserListQuery{}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("non-admin list error = %v, want ErrPermissionDenied", err)
	}

	if err := f.svc.SetAdminStatus(ctx, Caller{UserID: admin.ID, IsAdmin: true}, user.ID, true); err != nil {
		t.Fatalf("admin grant: %v", err)
	}
	got, _ := f.users.FindByID(user.ID)
	if !got.IsAdmin {
		t.Error("grant did not stick")
	}

	res, err := f.svc.ListAccounts(ctx, Caller{UserID: admin.ID, IsAdmin: true}, repository.UserListQuery{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("list total = %d, want 2", res.Total)
	}
}
