package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	domain "github.com/example/nextalk-server/domain/account"
	"github.com/google/uuid"
)

var (
	// ErrMissingFields is returned when a required field is blank.
	ErrMissingFields = errors.New("all fields are required")
	// ErrInvalidUsername is returned for usernames containing whitespace.
	ErrInvalidUsername = errors.New("username must not contain spaces")
	// ErrInvalidEmail is returned when the email does not parse.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrPasswordTooLong is returned when the password exceeds bcrypt's limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	// ErrInvalidCredentials is returned for any failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service implements signup, login and the user listing.
type Service struct {
	repo   *UserRepository
	hasher *PasswordHasher
	now    func() time.Time
}

// NewService creates a Service.
func NewService(repo *UserRepository, hasher *PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
}

// Signup creates an account.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return nil, ErrInvalidUsername
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	exists, err := s.repo.Exists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks credentials and returns the account.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ListUsernames returns every registered username.
func (s *Service) ListUsernames(ctx context.Context) ([]string, error) {
	names, err := s.repo.Usernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return names, nil
}
