package account

import (
	"context"
	"errors"

	domain "github.com/example/nextalk-server/domain/account"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is returned when the username or email is taken.
	ErrAccountExists = errors.New("username or email already exists")
)

// UserRepository stores accounts with GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrAccountExists
		}
		return result.Error
	}
	return nil
}

// FindByUsername loads the account called username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// Exists reports whether either username or email is already registered.
func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// Usernames lists every registered username in signup order.
func (r *UserRepository) Usernames(ctx context.Context) ([]string, error) {
	names := []string{}
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Order("created_at ASC").
		Pluck("username", &names)
	if result.Error != nil {
		return nil, result.Error
	}
	return names, nil
}
