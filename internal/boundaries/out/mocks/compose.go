package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// MockComposeRunner is a mock implementation of out.ComposeRunner.
type MockComposeRunner struct {
	mock.Mock
}

// NewMockComposeRunner creates a mock that asserts its expectations on cleanup.
func NewMockComposeRunner(t *testing.T) *MockComposeRunner {
	m := &MockComposeRunner{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockComposeRunner) Up(ctx context.Context, app domain.Application, recreate bool) error {
	args := m.Called(ctx, app, recreate)
	return args.Error(0)
}

func (m *MockComposeRunner) Down(ctx context.Context, app domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockComposeRunner) IsRunning(ctx context.Context, app domain.Application) (bool, error) {
	args := m.Called(ctx, app)
	return args.Bool(0), args.Error(1)
}

func (m *MockComposeRunner) CheckVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockApplicationRegistry is a mock implementation of out.ApplicationRegistry.
type MockApplicationRegistry struct {
	mock.Mock
}

// NewMockApplicationRegistry creates a mock that asserts its expectations on cleanup.
func NewMockApplicationRegistry(t *testing.T) *MockApplicationRegistry {
	m := &MockApplicationRegistry{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockApplicationRegistry) Discover(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockApplicationRegistry) Resolve(ctx context.Context, name string) (domain.Application, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Application), args.Error(1)
}

func (m *MockApplicationRegistry) Images(ctx context.Context, app domain.Application) ([]string, error) {
	args := m.Called(ctx, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockHistoryStore is a mock implementation of out.HistoryStore.
type MockHistoryStore struct {
	mock.Mock
}

// NewMockHistoryStore creates a mock that asserts its expectations on cleanup.
func NewMockHistoryStore(t *testing.T) *MockHistoryStore {
	m := &MockHistoryStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockHistoryStore) Append(appDir, imageName, imageID string) error {
	args := m.Called(appDir, imageName, imageID)
	return args.Error(0)
}

func (m *MockHistoryStore) ReadRecent(appDir string) ([]domain.HistoryEntry, error) {
	args := m.Called(appDir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

// MockLocker is a mock implementation of out.Locker.
type MockLocker struct {
	mock.Mock
}

// NewMockLocker creates a mock that asserts its expectations on cleanup.
func NewMockLocker(t *testing.T) *MockLocker {
	m := &MockLocker{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockLocker) Acquire(name string) (func() error, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func() error), args.Error(1)
}
