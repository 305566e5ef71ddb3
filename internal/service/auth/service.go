// Package auth implements registration, login, and token verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"log/slog"

	"github.com/SENG-401-Lesson-Planner/Backend/internal/domain"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/repository"
	"github.com/SENG-401-Lesson-Planner/Backend/pkg/crypto"
	jwtpkg "github.com/SENG-401-Lesson-Planner/Backend/pkg/jwt"
)

var (
	// ErrValidation marks malformed registration input (400).
	ErrValidation = errors.New("auth: invalid input")
	// ErrInvalidCredentials is the single undifferentiated login failure.
	// It deliberately does not say whether the username or password was
	// wrong.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken marks a missing, unparseable, or badly signed token.
	ErrInvalidToken = errors.New("auth: invalid token")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{4,20}$`)

const (
	minPasswordLen = 4
	// bcrypt ignores input beyond 72 bytes, so longer passwords would
	// silently truncate.
	maxPasswordLen = 72
)

// dummyHash absorbs a bcrypt comparison on the unknown-username path so its
// timing matches the wrong-password path.
var dummyHash, _ = crypto.HashPassword("lesson-planner-timing-pad")

// Service handles identity workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	secret string
}

// New constructs a Service. The signing secret must be non-empty; the
// process validates that before wiring services.
func New(users repository.UserRepository, logger *slog.Logger, secret string) Service {
	return Service{users: users, logger: logger, secret: secret}
}

// Register creates a user and returns a fresh identity token.
func (s Service) Register(ctx context.Context, username, password string) (string, error) {
	if !usernamePattern.MatchString(username) {
		return "", fmt.Errorf("%w: username must be 4-20 alphanumeric characters", ErrValidation)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return "", fmt.Errorf("%w: password must be %d-%d characters", ErrValidation, minPasswordLen, maxPasswordLen)
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", fmt.Errorf("%w: username already taken", ErrValidation)
		}
		return "", err
	}
	token, err := jwtpkg.Generate(username, hash, s.secret)
	if err != nil {
		return "", err
	}
	s.logger.Info("user registered", "username", username)
	return token, nil
}

// Login verifies credentials and returns a token bound to the stored hash.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = crypto.ComparePassword(dummyHash, password)
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	token, err := jwtpkg.Generate(user.Username, user.PasswordHash, s.secret)
	if err != nil {
		return "", err
	}
	s.logger.Info("user logged in", "username", username)
	return token, nil
}

// Authorize checks the token signature and returns its claims. No lookup
// against the credential store happens here: a token issued before a
// password change still verifies.
func (s Service) Authorize(token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.Parse(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
