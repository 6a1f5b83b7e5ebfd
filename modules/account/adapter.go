package account

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AccountPort is how other modules reach the account store.
type AccountPort interface {
	Signup(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	ListUsernames(ctx context.Context) ([]string, error)
}

// AccountAdapter implements AccountPort using the service container.
type AccountAdapter struct {
	container mono.ServiceContainer
}

// NewAccountAdapter creates a new AccountAdapter.
func NewAccountAdapter(container mono.ServiceContainer) *AccountAdapter {
	return &AccountAdapter{container: container}
}

// Signup registers an account.
func (a *AccountAdapter) Signup(ctx context.Context, username, email, password string) error {
	req := SignupRequest{Username: username, Email: email, Password: password}
	var resp SignupResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSignup,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("signup request failed: %w", err)
	}
	return nil
}

// Login checks credentials and returns the stored username.
func (a *AccountAdapter) Login(ctx context.Context, username, password string) (string, error) {
	req := LoginRequest{Username: username, Password: password}
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	return resp.Username, nil
}

// ListUsernames returns every registered username.
func (a *AccountAdapter) ListUsernames(ctx context.Context) ([]string, error) {
	req := ListUsersRequest{}
	var resp ListUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-users request failed: %w", err)
	}
	if resp.Usernames == nil {
		return []string{}, nil
	}
	return resp.Usernames, nil
}
