package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/retromusic/storefront/app/jobs"
	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/auth"
	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/metrics"
	"github.com/retromusic/storefront/pkg/queue"
	"github.com/retromusic/storefront/pkg/validate"
)

// Dispatcher queues background jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Session is what a successful register, login or reset returns.
type Session struct {
	User  models.PublicUser
	Token string
}

type RegisterInput struct {
	Name     string `json:"nombre"   validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72,maxbytes=72"`
}

type ResetInput struct {
	Email       string `json:"email"         validate:"required,email"`
	Code        string `json:"codigo"        validate:"required,digits=6"`
	NewPassword string `json:"nuevaPassword" validate:"required,min=6,max=72,maxbytes=72"`
}

// AuthService owns registration, login lockout and password reset.
type AuthService struct {
	users  *repositories.UserRepository
	tokens *auth.Manager
	jobs   Dispatcher
	cfg    config.AuthSettings
	store  string
	now    func() time.Time
}

// NewAuthService wires the service. now may be nil, meaning time.Now.
func NewAuthService(users *repositories.UserRepository, tokens *auth.Manager, jobs Dispatcher,
	cfg config.AuthSettings, storeName string, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{users: users, tokens: tokens, jobs: jobs, cfg: cfg, store: storeName, now: now}
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: models.RoleCustomer}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.WithCtx(ctx).Info("auth: user registered", "user_id", user.ID)
	return s.session(user)
}

// Login verifies credentials and applies the lockout policy.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	now := s.now()

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		metrics.RecordLogin("unknown")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.IsLocked(now) {
		metrics.RecordLogin("locked")
		return nil, s.lockedError(*user.LockedUntil, now)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, s.recordFailure(ctx, user.ID, now)
	}

	signedIn, err := s.completeLogin(ctx, user.ID, now)
	var lerr *LockedError
	if errors.As(err, &lerr) {
		metrics.RecordLogin("locked")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordLogin("success")
	return s.session(signedIn)
}

// completeLogin clears the failure counters once the password has been
// verified. The lock is checked again under the row lock, since a
// concurrent failure may have locked the account after the first read.
func (s *AuthService) completeLogin(ctx context.Context, userID uint, now time.Time) (*models.User, error) {
	var signedIn *models.User
	err := s.users.Transaction(ctx, func(repo *repositories.UserRepository) error {
		u, err := repo.LockByID(ctx, userID)
		if err != nil {
			return err
		}
		if u.IsLocked(now) {
			return s.lockedError(*u.LockedUntil, now)
		}
		if u.FailedAttempts != 0 || u.LockedUntil != nil {
			u.FailedAttempts = 0
			u.LockedUntil = nil
			if err := repo.Save(ctx, u); err != nil {
				return err
			}
		}
		signedIn = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return signedIn, nil
}

// recordFailure increments the failure counter under a row lock and locks
// the account when the threshold is reached.
func (s *AuthService) recordFailure(ctx context.Context, userID uint, now time.Time) error {
	var result error
	err := s.users.Transaction(ctx, func(repo *repositories.UserRepository) error {
		u, err := repo.LockByID(ctx, userID)
		if err != nil {
			return err
		}

		// A concurrent failure may already have locked the account.
		if u.IsLocked(now) {
			result = s.lockedError(*u.LockedUntil, now)
			return nil
		}
		if u.LockedUntil != nil {
			u.LockedUntil = nil
			u.FailedAttempts = 0
		}

		u.FailedAttempts++
		if u.FailedAttempts >= s.cfg.MaxAttempts {
			until := now.Add(s.cfg.LockoutDuration)
			u.LockedUntil = &until
			u.FailedAttempts = 0
			result = s.lockedError(until, now)
			logger.WithCtx(ctx).Warn("auth: account locked", "user_id", u.ID, "until", until)
		} else {
			cerr := &CredentialsError{}
			if s.cfg.RevealAttempts {
				left := s.cfg.MaxAttempts - u.FailedAttempts
				cerr.AttemptsRemaining = &left
			}
			result = cerr
		}
		return repo.Save(ctx, u)
	})
	if err != nil {
		return err
	}

	if errors.Is(result, ErrAccountLocked) {
		metrics.RecordLogin("locked")
	} else {
		metrics.RecordLogin("failed")
	}
	return result
}

func (s *AuthService) lockedError(until, now time.Time) *LockedError {
	return &LockedError{RemainingMinutes: int(math.Ceil(until.Sub(now).Minutes()))}
}

// Forgot issues a reset code when email belongs to an account. Unknown
// addresses succeed silently so the response never reveals membership.
func (s *AuthService) Forgot(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		// No account can match, so answer like an unknown address.
		logger.WithCtx(ctx).Debug("auth: reset requested for malformed email")
		return nil
	}

	code, err := newResetCode()
	if err != nil {
		return err
	}

	var user *models.User
	err = s.users.Transaction(ctx, func(repo *repositories.UserRepository) error {
		u, err := repo.LockByEmail(ctx, email)
		if err != nil {
			return err
		}
		digest := digestCode(code)
		expires := s.now().Add(s.cfg.ResetCodeTTL)
		u.ResetCodeHash = &digest
		u.ResetExpires = &expires
		user = u
		return repo.Save(ctx, u)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		logger.WithCtx(ctx).Info("auth: reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	job := jobs.ResetCodeMail(s.store, user.Email, user.Name, code, s.cfg.ResetCodeTTL)
	if err := s.jobs.Dispatch(ctx, job); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("auth: reset code issued", "user_id", user.ID)
	return nil
}

// Reset consumes a valid reset code and sets a new password. The code is
// single use; a successful reset also clears any lockout.
func (s *AuthService) Reset(ctx context.Context, in ResetInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Code = strings.TrimSpace(in.Code)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(in.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var user *models.User
	err = s.users.Transaction(ctx, func(repo *repositories.UserRepository) error {
		u, err := repo.LockByEmail(ctx, in.Email)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		if err != nil {
			return err
		}
		if u.ResetExpires == nil || !u.ResetExpires.After(now) || !codeMatches(u.ResetCodeHash, in.Code) {
			return ErrInvalidOrExpiredCode
		}

		u.PasswordHash = hash
		u.FailedAttempts = 0
		u.LockedUntil = nil
		u.ResetCodeHash = nil
		u.ResetExpires = nil
		user = u
		return repo.Save(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	logger.WithCtx(ctx).Info("auth: password reset", "user_id", user.ID)
	return s.session(user)
}

// Profile returns the sanitized user for id.
func (s *AuthService) Profile(ctx context.Context, id uint) (models.PublicUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, err
	}
	return u.Public(), nil
}

// PurgeExpired clears elapsed reset codes and lockouts.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	codes, locks, err := s.users.PurgeExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if codes > 0 || locks > 0 {
		logger.WithCtx(ctx).Info("auth: purged expired state", "reset_codes", codes, "lockouts", locks)
	}
	return nil
}

func (s *AuthService) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &Session{User: u.Public(), Token: token}, nil
}

// normalizeEmail makes account lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
