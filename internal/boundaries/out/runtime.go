// Package out defines output ports (interfaces) for infrastructure.
// These interfaces define the contract between use cases and driven adapters
// (Docker, docker compose, filesystem, archiver, etc.).
package out

import (
	"context"
	"io"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// ContainerEngine defines the container engine operations the use cases need.
// This interface abstracts the underlying engine (Docker API).
type ContainerEngine interface {
	// Runtime information
	Ping(ctx context.Context) error

	// Image operations
	// ImageID returns the local identity of ref, or "" when it is not present.
	ImageID(ctx context.Context, ref string) (string, error)
	ImageExists(ctx context.Context, id string) (bool, error)
	PullImage(ctx context.Context, ref string, progress io.Writer) error
	TagImage(ctx context.Context, sourceRef, targetRef string) error
	ListImages(ctx context.Context) ([]domain.LocalImage, error)
	// ImagesInUse returns the set of image IDs referenced by any container.
	ImagesInUse(ctx context.Context) (map[string]bool, error)

	// Volume operations
	ListVolumes(ctx context.Context) ([]string, error)
	VolumeExists(ctx context.Context, name string) (bool, error)
	CreateVolume(ctx context.Context, name string) error
	// ContainersUsingVolume returns containers in any state that mount the volume.
	ContainersUsingVolume(ctx context.Context, name string) ([]domain.Container, error)
}

// VolumeArchiver moves volume contents in and out of tar streams using
// short-lived helper containers.
type VolumeArchiver interface {
	IsEmpty(ctx context.Context, volume string) (bool, error)
	// Archive writes the volume as dir/<volume>.tar.<ext> and returns the file path.
	Archive(ctx context.Context, volume, dir string, compressor domain.Compressor) (string, error)
	// Extract replaces the volume contents with the given archive file.
	Extract(ctx context.Context, archivePath, volume string, compressor domain.Compressor) error
	// StopHelpers stops every helper container still running.
	StopHelpers(ctx context.Context) error
}
