package account

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

func TestModule_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewModule(filepath.Join(t.TempDir(), "accounts.db"), bcrypt.MinCost, &mockLogger{})
	assert.Equal(t, "account", m.Name())

	assert.False(t, m.Health(ctx).Healthy)

	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() { m.Stop(ctx) })
	assert.True(t, m.Health(ctx).Healthy)

	_, err := m.handleSignup(ctx, SignupRequest{Username: "alice", Email: "alice@example.com", Password: "pw"}, nil)
	require.NoError(t, err)

	_, err = m.handleSignup(ctx, SignupRequest{Username: "alice", Email: "other@example.com", Password: "pw"}, nil)
	assert.ErrorIs(t, err, ErrAccountExists)

	login, err := m.handleLogin(ctx, LoginRequest{Username: "alice", Password: "pw"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", login.Username)

	_, err = m.handleLogin(ctx, LoginRequest{Username: "alice", Password: "nope"}, nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	list, err := m.handleListUsers(ctx, ListUsersRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, list.Usernames)
}
