package mocks

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
)

// MockArchiver is a mock implementation of out.Archiver.
type MockArchiver struct {
	mock.Mock
}

// NewMockArchiver creates a mock that asserts its expectations on cleanup.
func NewMockArchiver(t *testing.T) *MockArchiver {
	m := &MockArchiver{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockArchiver) Create(ctx context.Context, req out.ArchiveRequest, w io.Writer) error {
	args := m.Called(ctx, req, w)
	return args.Error(0)
}

func (m *MockArchiver) Test(ctx context.Context, archivePath string, password []byte, w io.Writer) error {
	args := m.Called(ctx, archivePath, password, w)
	return args.Error(0)
}

func (m *MockArchiver) Extract(ctx context.Context, archivePath, dest string, password []byte, w io.Writer) error {
	args := m.Called(ctx, archivePath, dest, password, w)
	return args.Error(0)
}

func (m *MockArchiver) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockCipher is a mock implementation of out.Cipher.
type MockCipher struct {
	mock.Mock
}

// NewMockCipher creates a mock that asserts its expectations on cleanup.
func NewMockCipher(t *testing.T) *MockCipher {
	m := &MockCipher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCipher) Encrypt(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockCipher) Decrypt(ciphertext string) string {
	args := m.Called(ciphertext)
	return args.String(0)
}

// MockSettingsWriter is a mock implementation of out.SettingsWriter.
type MockSettingsWriter struct {
	mock.Mock
}

// NewMockSettingsWriter creates a mock that asserts its expectations on cleanup.
func NewMockSettingsWriter(t *testing.T) *MockSettingsWriter {
	m := &MockSettingsWriter{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSettingsWriter) SetArchivePassword(ciphertext string) error {
	args := m.Called(ciphertext)
	return args.Error(0)
}

// MockPrompter is a mock implementation of out.Prompter.
type MockPrompter struct {
	mock.Mock
}

// NewMockPrompter creates a mock that asserts its expectations on cleanup.
func NewMockPrompter(t *testing.T) *MockPrompter {
	m := &MockPrompter{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPrompter) Confirm(message string, defaultYes bool) (bool, error) {
	args := m.Called(message, defaultYes)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) Password(message string) ([]byte, error) {
	args := m.Called(message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPrompter) Select(message string, options []string) (int, error) {
	args := m.Called(message, options)
	return args.Int(0), args.Error(1)
}

func (m *MockPrompter) Input(message string) (string, error) {
	args := m.Called(message)
	return args.String(0), args.Error(1)
}
