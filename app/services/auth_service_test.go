package services

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/jobs"
	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/internal/testutil"
	"github.com/retromusic/storefront/pkg/auth"
)

type authFixture struct {
	db     *gorm.DB
	svc    *AuthService
	tokens *auth.Manager
	queue  *recordingQueue
	clock  *clock
}

func newAuthFixture(t *testing.T, cfg config.AuthSettings) authFixture {
	t.Helper()
	db := testutil.NewDB(t)
	c := newClock()
	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL, c.Now)
	require.NoError(t, err)
	q := &recordingQueue{}
	svc := NewAuthService(repositories.NewUserRepository(db), tokens, q, cfg, "Retro Music", c.Now)
	return authFixture{db: db, svc: svc, tokens: tokens, queue: q, clock: c}
}

func (f authFixture) register(t *testing.T, email, password string) *Session {
	t.Helper()
	s, err := f.svc.Register(context.Background(), RegisterInput{Name: "Ana", Email: email, Password: password})
	require.NoError(t, err)
	return s
}

func TestRegisterIssuesCustomerToken(t *testing.T) {
	f := newAuthFixture(t, authSettings())

	s := f.register(t, "ana@example.com", "secreto1")
	assert.Equal(t, "ana@example.com", s.User.Email)
	assert.Equal(t, models.RoleCustomer, s.User.Role)

	claims, err := f.tokens.Validate(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, claims.UserID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.Equal(t, f.clock.Now().Add(2*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestRegisterRejectsDuplicateAndInvalidInput(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Otra", Email: "ana@example.com", Password: "secreto2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Register(context.Background(), RegisterInput{Name: "", Email: "no-es-correo", Password: "123"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, verr.Fields, "nombre")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestPasswordLimitIsInBytes(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	ctx := context.Background()
	long := strings.Repeat("ñ", 40)

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: long})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, verr.Fields, "password")

	_, err = f.svc.Reset(ctx, ResetInput{Email: "ana@example.com", Code: "123456", NewPassword: long})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "nuevaPassword")

	f.register(t, "ana@example.com", strings.Repeat("ñ", 36))
}

func TestEmailLookupIgnoresCase(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	s := f.register(t, " Ana@Example.COM ", "secreto1")
	assert.Equal(t, "ana@example.com", s.User.Email)

	_, err := f.svc.Login(context.Background(), "ANA@example.com", "secreto1")
	assert.NoError(t, err)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	_, err := f.svc.Login(context.Background(), "nadie@example.com", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLockoutAfterThreeFailures(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()

	for _, left := range []int{2, 1} {
		_, err := f.svc.Login(ctx, "ana@example.com", "mala")
		var cerr *CredentialsError
		require.ErrorAs(t, err, &cerr)
		require.NotNil(t, cerr.AttemptsRemaining)
		assert.Equal(t, left, *cerr.AttemptsRemaining)
	}

	_, err := f.svc.Login(ctx, "ana@example.com", "mala")
	var lerr *LockedError
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.Equal(t, 5, lerr.RemainingMinutes)

	// Correct password is refused while locked.
	_, err = f.svc.Login(ctx, "ana@example.com", "secreto1")
	require.ErrorAs(t, err, &lerr)

	f.clock.Advance(4*time.Minute + 30*time.Second)
	_, err = f.svc.Login(ctx, "ana@example.com", "secreto1")
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 1, lerr.RemainingMinutes)

	f.clock.Advance(31 * time.Second)
	s, err := f.svc.Login(ctx, "ana@example.com", "secreto1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)

	var u models.User
	require.NoError(t, f.db.First(&u, s.User.ID).Error)
	assert.Zero(t, u.FailedAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestLoginRechecksLockUnderRowLock(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	sess := f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()
	now := f.clock.Now()

	// Another request locks the account after the password was verified.
	until := now.Add(5 * time.Minute)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", sess.User.ID).
		Updates(map[string]interface{}{"failed_attempts": 3, "locked_until": until}).Error)

	_, err := f.svc.completeLogin(ctx, sess.User.ID, now)
	var lerr *LockedError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 5, lerr.RemainingMinutes)

	var u models.User
	require.NoError(t, f.db.First(&u, sess.User.ID).Error)
	assert.Equal(t, 3, u.FailedAttempts)
	require.NotNil(t, u.LockedUntil)
	assert.True(t, u.LockedUntil.Equal(until))

	// Once the lock elapses the same path clears it.
	signedIn, err := f.svc.completeLogin(ctx, sess.User.ID, until.Add(time.Second))
	require.NoError(t, err)
	assert.Zero(t, signedIn.FailedAttempts)
	assert.Nil(t, signedIn.LockedUntil)
}

func TestFailureAfterElapsedLockStartsFresh(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(ctx, "ana@example.com", "mala")
	}
	f.clock.Advance(6 * time.Minute)

	_, err := f.svc.Login(ctx, "ana@example.com", "mala")
	var cerr *CredentialsError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, *cerr.AttemptsRemaining)
}

func TestSuccessfulLoginResetsCounter(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()

	_, _ = f.svc.Login(ctx, "ana@example.com", "mala")
	_, _ = f.svc.Login(ctx, "ana@example.com", "mala")
	_, err := f.svc.Login(ctx, "ana@example.com", "secreto1")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ana@example.com", "mala")
	var cerr *CredentialsError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, *cerr.AttemptsRemaining)
}

func TestRevealPolicyOff(t *testing.T) {
	cfg := authSettings()
	cfg.RevealAttempts = false
	f := newAuthFixture(t, cfg)
	f.register(t, "ana@example.com", "secreto1")

	_, err := f.svc.Login(context.Background(), "ana@example.com", "mala")
	var cerr *CredentialsError
	require.ErrorAs(t, err, &cerr)
	assert.Nil(t, cerr.AttemptsRemaining)
}

var codeRE = regexp.MustCompile(`es (\d{6})\.`)

func issuedCode(t *testing.T, q *recordingQueue) string {
	t.Helper()
	all := q.Jobs()
	require.NotEmpty(t, all)
	job, ok := all[len(all)-1].(*jobs.SendMail)
	require.True(t, ok)
	m := codeRE.FindStringSubmatch(job.Text)
	require.Len(t, m, 2)
	return m[1]
}

func TestForgotUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	require.NoError(t, f.svc.Forgot(context.Background(), "nadie@example.com"))
	assert.Empty(t, f.queue.Jobs())
}

func TestForgotMalformedEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")

	for _, email := range []string{"no-es-correo", "ana@", "  "} {
		assert.NoError(t, f.svc.Forgot(context.Background(), email), email)
	}
	assert.Empty(t, f.queue.Jobs())
}

func TestResetCodeIsSingleUse(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()

	require.NoError(t, f.svc.Forgot(ctx, "ana@example.com"))
	code := issuedCode(t, f.queue)

	var u models.User
	require.NoError(t, f.db.Where("email = ?", "ana@example.com").First(&u).Error)
	require.NotNil(t, u.ResetCodeHash)
	assert.NotEqual(t, code, *u.ResetCodeHash)

	wrong := []byte(code)
	wrong[0] = '0' + (wrong[0]-'0'+1)%10
	_, err := f.svc.Reset(ctx, ResetInput{Email: "ana@example.com", Code: string(wrong), NewPassword: "nueva123"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)

	s, err := f.svc.Reset(ctx, ResetInput{Email: "ana@example.com", Code: code, NewPassword: "nueva123"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)

	_, err = f.svc.Reset(ctx, ResetInput{Email: "ana@example.com", Code: code, NewPassword: "otra1234"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)

	_, err = f.svc.Login(ctx, "ana@example.com", "nueva123")
	assert.NoError(t, err)
}

func TestResetCodeExpires(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()

	require.NoError(t, f.svc.Forgot(ctx, "ana@example.com"))
	code := issuedCode(t, f.queue)

	f.clock.Advance(10 * time.Minute)
	_, err := f.svc.Reset(ctx, ResetInput{Email: "ana@example.com", Code: code, NewPassword: "nueva123"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestResetClearsLockout(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(ctx, "ana@example.com", "mala")
	}
	require.NoError(t, f.svc.Forgot(ctx, "ana@example.com"))
	_, err := f.svc.Reset(ctx, ResetInput{Email: "ana@example.com", Code: issuedCode(t, f.queue), NewPassword: "nueva123"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ana@example.com", "nueva123")
	assert.NoError(t, err)
}

func TestResetValidatesInput(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	_, err := f.svc.Reset(context.Background(), ResetInput{Email: "ana@example.com", Code: "12ab", NewPassword: "x"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "codigo")
	assert.Contains(t, verr.Fields, "nuevaPassword")
}

func TestProfileAndPurge(t *testing.T) {
	f := newAuthFixture(t, authSettings())
	s := f.register(t, "ana@example.com", "secreto1")
	ctx := context.Background()

	p, err := f.svc.Profile(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, s.User, p)

	_, err = f.svc.Profile(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.svc.Forgot(ctx, "ana@example.com"))
	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(ctx, "ana@example.com", "mala")
	}
	f.clock.Advance(11 * time.Minute)
	require.NoError(t, f.svc.PurgeExpired(ctx))

	var u models.User
	require.NoError(t, f.db.First(&u, s.User.ID).Error)
	assert.Nil(t, u.ResetCodeHash)
	assert.Nil(t, u.ResetExpires)
	assert.Nil(t, u.LockedUntil)
}
