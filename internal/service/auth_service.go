package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/domain"
	"github.com/moveout-labs/moveout-backend/internal/mailer"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
	"github.com/moveout-labs/moveout-backend/internal/security"
)

// TokenPair is the credential set returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*domain.User, error)
	// Login authenticates a local credential. A deactivated account may
	// still log in; the deactivation notice tells users to log in to
	// reactivate, so the door stays open.
	Login(ctx context.Context, email, password, userAgent, ip string) (*domain.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	// VerifyEmail consumes the single-use token mailed at registration.
	VerifyEmail(ctx context.Context, token string) error
}

type authService struct {
	users       repository.UserRepository
	creds       repository.LocalCredentialRepository
	sessions    repository.SessionRepository
	verifTokens repository.VerificationTokenRepository
	jwt         *security.JWTManager
	mail        mailer.Mailer
	pepper      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	verifyTTL   time.Duration
	now         func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	creds repository.LocalCredentialRepository,
	sessions repository.SessionRepository,
	verifTokens repository.VerificationTokenRepository,
	jwt *security.JWTManager,
	mail mailer.Mailer,
	pepper string,
	accessTTL, refreshTTL, verifyTTL time.Duration,
) AuthService {
	return &authService{
		users:       users,
		creds:       creds,
		sessions:    sessions,
		verifTokens: verifTokens,
		jwt:         jwt,
		mail:        mail,
		pepper:      pepper,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		verifyTTL:   verifyTTL,
		now:         time.Now,
	}
}

func (s *authService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") || name == "" {
		return nil, ErrInvalidArgument
	}
	if err := security.ValidatePassword(password); err != nil {
		return nil, ErrInvalidArgument
	}

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		IsActive:     true,
		LastActivity: s.now().UTC(),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	if err := s.creds.Create(&domain.LocalCredential{UserID: user.ID, PasswordHash: hash}); err != nil {
		return nil, err
	}
	// Verification mail is best-effort; the account works without it.
	s.sendVerification(ctx, user)
	return user, nil
}

func (s *authService) sendVerification(ctx context.Context, user *domain.User) {
	token, err := security.NewVerificationToken()
	if err != nil {
		slog.WarnContext(ctx, "verification token generation failed", "user_id", user.ID, "error", err)
		return
	}
	record := &domain.VerificationToken{
		UserID:    user.ID,
		TokenHash: security.HashVerificationToken(token),
		ExpiresAt: s.now().UTC().Add(s.verifyTTL),
	}
	if err := s.verifTokens.Create(record); err != nil {
		slog.WarnContext(ctx, "verification token store failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.mail.SendEmailVerification(ctx, user.Email, user.Name, token); err != nil {
		observability.RecordNotification(ctx, "email_verification", "failed")
		slog.WarnContext(ctx, "verification mail failed", "user_id", user.ID, "error", err)
		return
	}
	observability.RecordNotification(ctx, "email_verification", "sent")
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidVerificationToken
	}
	record, err := s.verifTokens.FindValidByHash(security.HashVerificationToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}
	now := s.now().UTC()
	if err := s.verifTokens.MarkUsed(record.ID, now); err != nil {
		return err
	}
	return s.users.MarkEmailVerified(record.UserID, now)
}

func (s *authService) Login(ctx context.Context, email, password, userAgent, ip string) (*domain.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin(ctx, "unknown_user")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	cred, err := s.creds.FindByUserID(user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			observability.RecordAuthLogin(ctx, "no_credential")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	ok, err := security.VerifyPassword(cred.PasswordHash, password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		observability.RecordAuthLogin(ctx, "bad_password")
		return nil, nil, ErrInvalidCredentials
	}

	// Logging in counts as activity for an active account.
	if user.IsActive {
		if err := s.users.TouchActivity(user.ID, s.now().UTC()); err != nil {
			slog.WarnContext(ctx, "activity bump on login failed", "user_id", user.ID, "error", err)
		}
	}

	pair, err := s.issueTokens(user, userAgent, ip)
	if err != nil {
		return nil, nil, err
	}
	observability.RecordAuthLogin(ctx, "success")
	return user, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}
	hash := security.HashRefreshToken(refreshToken, s.pepper)
	session, err := s.sessions.FindValidByHash(hash)
	if err != nil {
		observability.RecordAuthRefresh(ctx, "invalid")
		return nil, ErrUnauthenticated
	}
	user, err := s.users.FindByID(session.UserID)
	if err != nil {
		observability.RecordAuthRefresh(ctx, "orphan_session")
		return nil, ErrUnauthenticated
	}

	// Rotate: the presented token is single use.
	if err := s.sessions.RevokeByHash(hash); err != nil {
		return nil, err
	}
	pair, err := s.issueTokens(user, session.UserAgent, session.IPAddress)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthRefresh(ctx, "success")
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.sessions.RevokeByHash(security.HashRefreshToken(refreshToken, s.pepper)); err != nil {
		observability.RecordAuthLogout(ctx, "error")
		return err
	}
	observability.RecordAuthLogout(ctx, "success")
	return nil
}

func (s *authService) issueTokens(user *domain.User, userAgent, ip string) (*TokenPair, error) {
	access, err := s.jwt.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	refresh, err := security.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		UserID:           user.ID,
		RefreshTokenHash: security.HashRefreshToken(refresh, s.pepper),
		UserAgent:        userAgent,
		IPAddress:        ip,
		ExpiresAt:        s.now().UTC().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
