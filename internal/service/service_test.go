package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"task_manager/internal/auth"
	"task_manager/internal/models"
	"task_manager/internal/session"
	"task_manager/internal/storage"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc      *Service
	st       *storage.MemoryStorage
	sessions *session.Store
	tokens   *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := storage.NewMemoryStorage()
	sessions := session.NewStore()
	tokens := auth.NewTokenIssuer("test-secret", 15*time.Minute, 7*24*time.Hour, sessions)
	svc := NewService(st, auth.NewHasher(bcrypt.MinCost), tokens, sessions, Pagination{DefaultLimit: 10, MaxLimit: 100})

	return &fixture{svc: svc, st: st, sessions: sessions, tokens: tokens}
}

func (f *fixture) register(t *testing.T, email string) AuthResult {
	t.Helper()

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "user",
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)

	return res
}

func TestRegister_IssuesTokens(t *testing.T) {
	f := newFixture(t)

	res := f.register(t, "Alice@Example.com ")

	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.Refresh.Value)

	userID, err := f.tokens.VerifyAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	owner, err := f.sessions.Lookup(res.Refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, owner)

	stored, err := f.st.GetCredentialsByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "other",
		Email:    "ALICE@example.com",
		Password: "another",
	})
	require.ErrorIs(t, err, ErrEmailInUse)
}

// racingStorage hides the first registration from the pre-check so the
// insert itself reports the duplicate.
type racingStorage struct {
	*storage.MemoryStorage
}

func (r racingStorage) GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	return models.Credentials{}, storage.ErrUserNotFound
}

func TestRegister_InsertConflictIsConflict(t *testing.T) {
	f := newFixture(t)
	f.svc.storage = racingStorage{f.st}
	f.register(t, "alice@example.com")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "other",
		Email:    "alice@example.com",
		Password: "another",
	})
	require.ErrorIs(t, err, ErrEmailInUse)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "   ",
		Email:    "not-an-email",
		Password: "12345",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"username", "email", "password"}, fields)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestRegister_PasswordLengthCountsCharacters(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "ääa",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "password", verr.Fields[0].Field)

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "äöüßéè",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	_, err = f.svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: strings.Repeat("ä", 37),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Fields[0].Field)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "alice@example.com")

	res, err := f.svc.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEqual(t, reg.Refresh.Value, res.Refresh.Value)
	assert.Equal(t, 2, f.sessions.Len())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")
	before := f.sessions.Len()

	_, errWrongPassword := f.svc.Login(context.Background(), "alice@example.com", "wrong-password")
	_, errUnknownEmail := f.svc.Login(context.Background(), "nobody@example.com", "secret1")

	require.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
	assert.Equal(t, before, f.sessions.Len(), "no session for a failed login")
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "alice@example.com")

	for i := 0; i < 2; i++ {
		access, err := f.svc.Refresh(context.Background(), reg.Refresh.Value)
		require.NoError(t, err)

		userID, err := f.tokens.VerifyAccess(access)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, userID)
	}

	_, err := f.svc.Refresh(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture(t)
	userID := uuid.Must(uuid.NewV4())
	f.sessions.Save("stale", userID, time.Now().Add(-time.Minute))

	_, err := f.svc.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, ErrRefreshTokenExpired)

	_, err = f.svc.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout_RevokesRefresh(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "alice@example.com")

	f.svc.Logout(context.Background(), reg.Refresh.Value)
	f.svc.Logout(context.Background(), reg.Refresh.Value)
	f.svc.Logout(context.Background(), "")

	_, err := f.svc.Refresh(context.Background(), reg.Refresh.Value)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "alice@example.com")

	user, err := f.svc.Profile(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "user", user.Username)

	_, err = f.svc.Profile(context.Background(), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, ErrUserNotFound)
}

type brokenStorage struct {
	*storage.MemoryStorage
}

func (b brokenStorage) GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	return models.Credentials{}, errors.New("connection refused")
}

func TestLogin_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.svc.storage = brokenStorage{f.st}

	_, err := f.svc.Login(context.Background(), "alice@example.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorContains(t, err, "connection refused")
}
