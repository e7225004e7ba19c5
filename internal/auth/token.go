package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	UserID uuid.UUID `json:"userId"`
	jwt.RegisteredClaims
}

// SessionSaver records refresh tokens handed out by the issuer.
type SessionSaver interface {
	Save(token string, userID uuid.UUID, expiresAt time.Time)
}

// IssuedToken is a refresh token together with its absolute expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenIssuer signs HS256 access tokens and mints opaque refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessions   SessionSaver
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, sessions SessionSaver) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		sessions:   sessions,
		now:        time.Now,
	}
}

func (i *TokenIssuer) IssueAccess(userID uuid.UUID) (string, error) {
	const op = "auth.IssueAccess"

	issuedAt := i.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// IssueRefresh generates a refresh token and registers it with the session store.
func (i *TokenIssuer) IssueRefresh(userID uuid.UUID) (IssuedToken, error) {
	const op = "auth.IssueRefresh"

	value, err := RandomToken(refreshTokenBytes)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := i.now().Add(i.refreshTTL)
	i.sessions.Save(value, userID, expiresAt)

	return IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// VerifyAccess checks signature and expiry and returns the subject's user id.
func (i *TokenIssuer) VerifyAccess(tokenStr string) (uuid.UUID, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}

		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}

	return claims.UserID, nil
}

func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}
