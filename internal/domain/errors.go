package domain

import "errors"

// Domain errors represent business-level errors that can occur in the system.
// These errors are used across layers to communicate specific failure conditions.
var (
	// Environment errors
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrDependencyMissing   = errors.New("required dependency missing")
	ErrDaemonUnreachable   = errors.New("container daemon unreachable")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrOperationInProgress = errors.New("operation already in progress")

	// Application errors
	ErrApplicationNotFound = errors.New("application not found")
	ErrComposeFileMissing  = errors.New("compose file not found")

	// Image errors
	ErrPullFailed                = errors.New("failed to pull image")
	ErrRollbackTargetUnavailable = errors.New("no eligible rollback targets")

	// Volume errors
	ErrVolumeNotFound      = errors.New("volume not found")
	ErrOwnershipUnresolved = errors.New("volume owner directory could not be resolved")

	// Archive errors
	ErrArchiveCreation     = errors.New("archive creation failed")
	ErrArchiveVerification = errors.New("archive verification failed")
	ErrNoStoredPassword    = errors.New("no stored archive password")

	ErrUserCancelled = errors.New("cancelled by user")
)

// IsFatal reports whether err should abort the whole run rather than the
// unit of work it occurred in.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDependencyMissing) ||
		errors.Is(err, ErrDaemonUnreachable) ||
		errors.Is(err, ErrPermissionDenied)
}
