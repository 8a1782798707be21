// Package mocks provides testify mocks for the driving ports.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// MockAppService is a mock implementation of in.AppService.
type MockAppService struct {
	mock.Mock
}

// NewMockAppService creates a mock that asserts its expectations on cleanup.
func NewMockAppService(t *testing.T) *MockAppService {
	m := &MockAppService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAppService) List(ctx context.Context) ([]domain.Application, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *MockAppService) Start(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockAppService) Stop(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

// MockUpdateService is a mock implementation of in.UpdateService.
type MockUpdateService struct {
	mock.Mock
}

// NewMockUpdateService creates a mock that asserts its expectations on cleanup.
func NewMockUpdateService(t *testing.T) *MockUpdateService {
	m := &MockUpdateService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUpdateService) Update(ctx context.Context, name string, force bool) (*domain.UpdateResult, error) {
	args := m.Called(ctx, name, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UpdateResult), args.Error(1)
}

func (m *MockUpdateService) UpdateAll(ctx context.Context, force bool) ([]domain.UpdateResult, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UpdateResult), args.Error(1)
}

func (m *MockUpdateService) RefreshUnused(ctx context.Context) ([]domain.PullOutcome, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PullOutcome), args.Error(1)
}

// MockRollbackService is a mock implementation of in.RollbackService.
type MockRollbackService struct {
	mock.Mock
}

// NewMockRollbackService creates a mock that asserts its expectations on cleanup.
func NewMockRollbackService(t *testing.T) *MockRollbackService {
	m := &MockRollbackService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRollbackService) Candidates(ctx context.Context, name string) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *MockRollbackService) Rollback(ctx context.Context, name string, entry domain.HistoryEntry) error {
	return m.Called(ctx, name, entry).Error(0)
}

// MockBackupService is a mock implementation of in.BackupService.
type MockBackupService struct {
	mock.Mock
}

// NewMockBackupService creates a mock that asserts its expectations on cleanup.
func NewMockBackupService(t *testing.T) *MockBackupService {
	m := &MockBackupService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBackupService) ListVolumes(ctx context.Context) ([]domain.Volume, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Volume), args.Error(1)
}

func (m *MockBackupService) Plan(ctx context.Context, volumes []string) (domain.BackupPlan, error) {
	args := m.Called(ctx, volumes)
	return args.Get(0).(domain.BackupPlan), args.Error(1)
}

func (m *MockBackupService) Backup(ctx context.Context, volumes []string, targetRoot string) (*domain.BackupSession, error) {
	args := m.Called(ctx, volumes, targetRoot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BackupSession), args.Error(1)
}

func (m *MockBackupService) Restore(ctx context.Context, source string) ([]domain.RestoreResult, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RestoreResult), args.Error(1)
}

// MockArchiveService is a mock implementation of in.ArchiveService.
type MockArchiveService struct {
	mock.Mock
}

// NewMockArchiveService creates a mock that asserts its expectations on cleanup.
func NewMockArchiveService(t *testing.T) *MockArchiveService {
	m := &MockArchiveService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockArchiveService) Create(ctx context.Context, opts domain.ArchiveOptions) (*domain.ArchiveResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArchiveResult), args.Error(1)
}

func (m *MockArchiveService) SetDefaultPassword(ctx context.Context, password []byte) error {
	return m.Called(ctx, password).Error(0)
}

func (m *MockArchiveService) ClearDefaultPassword(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
