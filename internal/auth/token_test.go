package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSessions struct {
	mu    sync.Mutex
	saved map[string]uuid.UUID
	exp   map[string]time.Time
}

func newRecordingSessions() *recordingSessions {
	return &recordingSessions{saved: map[string]uuid.UUID{}, exp: map[string]time.Time{}}
}

func (r *recordingSessions) Save(token string, userID uuid.UUID, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[token] = userID
	r.exp[token] = expiresAt
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newIssuer(t *testing.T, secret string) (*TokenIssuer, *fakeClock, *recordingSessions) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	sessions := newRecordingSessions()
	iss := NewTokenIssuer(secret, 15*time.Minute, 7*24*time.Hour, sessions)
	iss.now = clock.Now

	return iss, clock, sessions
}

func TestIssueAndVerifyAccess(t *testing.T) {
	iss, _, _ := newIssuer(t, "super-secret")
	userID := uuid.Must(uuid.NewV4())

	tok, err := iss.IssueAccess(userID)
	require.NoError(t, err)

	got, err := iss.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyAccess_ExpiryBoundary(t *testing.T) {
	iss, clock, _ := newIssuer(t, "super-secret")
	issuedAt := clock.t

	tok, err := iss.IssueAccess(uuid.Must(uuid.NewV4()))
	require.NoError(t, err)

	clock.t = issuedAt.Add(14*time.Minute + 59*time.Second)
	_, err = iss.VerifyAccess(tok)
	require.NoError(t, err)

	clock.t = issuedAt.Add(15*time.Minute + time.Second)
	_, err = iss.VerifyAccess(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	iss, _, _ := newIssuer(t, "right-secret")
	other, _, _ := newIssuer(t, "wrong-secret")

	tok, err := iss.IssueAccess(uuid.Must(uuid.NewV4()))
	require.NoError(t, err)

	_, err = other.VerifyAccess(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_Malformed(t *testing.T) {
	iss, _, _ := newIssuer(t, "k")

	_, err := iss.VerifyAccess("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.VerifyAccess("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_RejectsOtherAlgorithms(t *testing.T) {
	iss, clock, _ := newIssuer(t, "k")

	claims := &Claims{
		UserID: uuid.Must(uuid.NewV4()),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = iss.VerifyAccess(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_MissingExpiry(t *testing.T) {
	iss, _, _ := newIssuer(t, "k")

	claims := &Claims{UserID: uuid.Must(uuid.NewV4())}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = iss.VerifyAccess(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRefresh_RegistersSession(t *testing.T) {
	iss, clock, sessions := newIssuer(t, "k")
	userID := uuid.Must(uuid.NewV4())

	tok, err := iss.IssueRefresh(userID)
	require.NoError(t, err)

	assert.Len(t, tok.Value, refreshTokenBytes*2)
	assert.Equal(t, clock.t.Add(iss.RefreshTTL()), tok.ExpiresAt)
	assert.Equal(t, 7*24*time.Hour, iss.RefreshTTL())
	assert.Equal(t, userID, sessions.saved[tok.Value])
	assert.Equal(t, tok.ExpiresAt, sessions.exp[tok.Value])

	again, err := iss.IssueRefresh(userID)
	require.NoError(t, err)
	assert.NotEqual(t, tok.Value, again.Value)
}
