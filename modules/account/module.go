package account

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/nextalk-server/domain/account"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Module owns the account database and serves signup, login and user listing.
type Module struct {
	dbPath     string
	bcryptCost int
	db         *gorm.DB
	service    *Service
	logger     types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates an account module storing users in the sqlite file at dbPath.
func NewModule(dbPath string, bcryptCost int, logger types.Logger) *Module {
	return &Module{
		dbPath:     dbPath,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "account"
}

// Start opens and migrates the database.
func (m *Module) Start(_ context.Context) error {
	db, err := OpenDB(m.dbPath)
	if err != nil {
		return err
	}
	m.db = db
	m.service = NewService(NewUserRepository(db), NewPasswordHasher(m.bcryptCost))

	m.logger.Info("Account module started", "database", m.dbPath)
	return nil
}

// Stop closes the database.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Account module stopped")
	return nil
}

// Health pings the database.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"database": m.dbPath},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceSignup,
		json.Unmarshal,
		json.Marshal,
		m.handleSignup,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSignup, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceLogin,
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListUsers,
		json.Unmarshal,
		json.Marshal,
		m.handleListUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListUsers, err)
	}

	m.logger.Info("Registered account services", "services", []string{ServiceSignup, ServiceLogin, ServiceListUsers})
	return nil
}

func (m *Module) handleSignup(ctx context.Context, req SignupRequest, _ *mono.Msg) (SignupResponse, error) {
	user, err := m.service.Signup(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return SignupResponse{}, err
	}
	m.logger.Info("Account created", "username", user.Username)
	return SignupResponse{ID: user.ID, Username: user.Username}, nil
}

func (m *Module) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	user, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Username: user.Username}, nil
}

func (m *Module) handleListUsers(ctx context.Context, _ ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	names, err := m.service.ListUsernames(ctx)
	if err != nil {
		return ListUsersResponse{}, err
	}
	return ListUsersResponse{Usernames: names}, nil
}

// OpenDB opens the sqlite account database and migrates the users table.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
