package out

import (
	"context"
	"io"
)

// ArchiveRequest describes an archive creation run.
type ArchiveRequest struct {
	ArchivePath      string
	SourceDir        string
	Password         []byte
	SplitFlag        string
	CompressionLevel int
}

// Archiver creates, tests, and extracts sealed archives.
type Archiver interface {
	// Create writes the archive, streaming tool output to out.
	Create(ctx context.Context, req ArchiveRequest, out io.Writer) error
	// Test verifies the archive. A password, when set, is passed on stdin.
	Test(ctx context.Context, archivePath string, password []byte, out io.Writer) error
	// Extract unpacks the archive into dest.
	Extract(ctx context.Context, archivePath, dest string, password []byte, out io.Writer) error
	// Available reports whether the archive tool is installed.
	Available() bool
}

// Cipher encrypts and decrypts the stored archive password.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	// Decrypt returns "" when the key or ciphertext is missing or corrupted.
	Decrypt(ciphertext string) string
}

// SettingsWriter persists user settings changed at runtime.
type SettingsWriter interface {
	SetArchivePassword(ciphertext string) error
}
