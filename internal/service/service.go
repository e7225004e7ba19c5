package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"task_manager/internal/auth"
	"task_manager/internal/models"
	"task_manager/internal/session"
	"task_manager/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

var validate = validator.New()

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	IssueAccess(userID uuid.UUID) (string, error)
	IssueRefresh(userID uuid.UUID) (auth.IssuedToken, error)
}

type Sessions interface {
	Lookup(token string) (uuid.UUID, error)
	Delete(token string)
}

type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

type Service struct {
	storage    storage.Storage
	hasher     PasswordHasher
	tokens     TokenIssuer
	sessions   Sessions
	guard      *OwnershipGuard
	pagination Pagination
	now        func() time.Time
}

func NewService(st storage.Storage, hasher PasswordHasher, tokens TokenIssuer, sessions Sessions, pagination Pagination) *Service {
	return &Service{
		storage:    st,
		hasher:     hasher,
		tokens:     tokens,
		sessions:   sessions,
		guard:      NewOwnershipGuard(st),
		pagination: pagination,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is what a successful register or login hands back to the client.
type AuthResult struct {
	AccessToken string
	Refresh     auth.IssuedToken
	User        models.User
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	const op = "service.Register"

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	verr := &ValidationError{}
	if in.Username == "" {
		verr.add("username", "Username is required")
	}
	if !validEmail(in.Email) {
		verr.add("email", "Valid email is required")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		verr.add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	} else if len(in.Password) > maxPasswordLen {
		verr.add("password", fmt.Sprintf("Password must be at most %d bytes", maxPasswordLen))
	}
	if err := verr.errOrNil(); err != nil {
		return AuthResult{}, err
	}

	_, err := s.storage.GetCredentialsByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return AuthResult{}, ErrEmailInUse
	case !errors.Is(err, storage.ErrUserNotFound):
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.CreateUser(ctx, models.User{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return AuthResult{}, ErrEmailInUse
		}

		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.issueTokens(op, user)
}

// Login answers ErrInvalidCredentials for an unknown email and for a wrong
// password alike.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "service.Login"

	email = normalizeEmail(email)

	verr := &ValidationError{}
	if !validEmail(email) {
		verr.add("email", "Valid email is required")
	}
	if password == "" {
		verr.add("password", "Password is required")
	}
	if err := verr.errOrNil(); err != nil {
		return AuthResult{}, err
	}

	cred, err := s.storage.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}

		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if ok := s.hasher.Verify(password, cred.PasswordHash); !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.storage.GetUserByID(ctx, cred.UserID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.issueTokens(op, user)
}

// Refresh mints a new access token. The refresh token itself stays valid
// until it expires or is logged out.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "service.Refresh"

	if refreshToken == "" {
		return "", ErrInvalidRefreshToken
	}

	userID, err := s.sessions.Lookup(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			return "", ErrRefreshTokenExpired
		case errors.Is(err, session.ErrNotFound):
			return "", ErrInvalidRefreshToken
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return accessToken, nil
}

// Logout forgets the refresh token. Unknown and empty tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	s.sessions.Delete(refreshToken)
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "service.Profile"

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func (s *Service) issueTokens(op string, user models.User) (AuthResult, error) {
	accessToken, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return AuthResult{AccessToken: accessToken, Refresh: refresh, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
