// Package mocks provides testify mocks for the output ports.
package mocks

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// MockContainerEngine is a mock implementation of out.ContainerEngine.
type MockContainerEngine struct {
	mock.Mock
}

// NewMockContainerEngine creates a mock that asserts its expectations on cleanup.
func NewMockContainerEngine(t *testing.T) *MockContainerEngine {
	m := &MockContainerEngine{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockContainerEngine) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Image operations
func (m *MockContainerEngine) ImageID(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func (m *MockContainerEngine) ImageExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockContainerEngine) PullImage(ctx context.Context, ref string, progress io.Writer) error {
	args := m.Called(ctx, ref, progress)
	return args.Error(0)
}

func (m *MockContainerEngine) TagImage(ctx context.Context, sourceRef, targetRef string) error {
	args := m.Called(ctx, sourceRef, targetRef)
	return args.Error(0)
}

func (m *MockContainerEngine) ListImages(ctx context.Context) ([]domain.LocalImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LocalImage), args.Error(1)
}

func (m *MockContainerEngine) ImagesInUse(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// Volume operations
func (m *MockContainerEngine) ListVolumes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockContainerEngine) VolumeExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockContainerEngine) CreateVolume(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockContainerEngine) ContainersUsingVolume(ctx context.Context, name string) ([]domain.Container, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Container), args.Error(1)
}

// MockVolumeArchiver is a mock implementation of out.VolumeArchiver.
type MockVolumeArchiver struct {
	mock.Mock
}

// NewMockVolumeArchiver creates a mock that asserts its expectations on cleanup.
func NewMockVolumeArchiver(t *testing.T) *MockVolumeArchiver {
	m := &MockVolumeArchiver{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVolumeArchiver) IsEmpty(ctx context.Context, volume string) (bool, error) {
	args := m.Called(ctx, volume)
	return args.Bool(0), args.Error(1)
}

func (m *MockVolumeArchiver) Archive(ctx context.Context, volume, dir string, compressor domain.Compressor) (string, error) {
	args := m.Called(ctx, volume, dir, compressor)
	return args.String(0), args.Error(1)
}

func (m *MockVolumeArchiver) Extract(ctx context.Context, archivePath, volume string, compressor domain.Compressor) error {
	args := m.Called(ctx, archivePath, volume, compressor)
	return args.Error(0)
}

func (m *MockVolumeArchiver) StopHelpers(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
