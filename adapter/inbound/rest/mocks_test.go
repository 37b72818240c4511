package rest

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/avigneron/pumphouse/domain/model"
)

func withSession(r *http.Request, session *model.Session) context.Context {
	return context.WithValue(r.Context(), SessionContextKey, session)
}

type nopLogger struct{}

func (nopLogger) Error(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Debug(msg string, args ...any) {}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(username, password string) (*model.Session, error) {
	args := m.Called(username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) Validate(sessionID string) (*model.Session, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) Logout(sessionID string) bool {
	args := m.Called(sessionID)
	return args.Bool(0)
}

func (m *MockAuthService) CreateUser(username, password string, role model.UserRole) (*model.User, error) {
	args := m.Called(username, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) DeleteUser(username string) error {
	args := m.Called(username)
	return args.Error(0)
}

func (m *MockAuthService) ChangePassword(username, password string) error {
	args := m.Called(username, password)
	return args.Error(0)
}

func (m *MockAuthService) ListUsers() ([]*model.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockAuthService) ReloadUsers() error {
	args := m.Called()
	return args.Error(0)
}

type MockPumpService struct {
	mock.Mock
}

func (m *MockPumpService) Start(durationInput int64) error {
	args := m.Called(durationInput)
	return args.Error(0)
}

func (m *MockPumpService) Stop() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPumpService) Tick() {
	m.Called()
}

func (m *MockPumpService) Restore() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPumpService) Status() model.PumpStatus {
	args := m.Called()
	return args.Get(0).(model.PumpStatus)
}
