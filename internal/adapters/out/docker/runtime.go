// Package docker implements the container engine adapter using the Docker API.
package docker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bnema/zerowrap"
	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

const untaggedRef = "<none>:<none>"

// Engine implements out.ContainerEngine and out.VolumeArchiver using the Docker API.
type Engine struct {
	client      *client.Client
	helperImage string
}

// NewEngine creates a new Docker engine adapter from the environment.
func NewEngine(helperImage string) (*Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return NewEngineWithClient(cli, helperImage), nil
}

// NewEngineWithClient creates a new engine with a custom client (for testing).
func NewEngineWithClient(cli *client.Client, helperImage string) *Engine {
	return &Engine{
		client:      cli,
		helperImage: helperImage,
	}
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Ping checks if Docker is responsive.
func (e *Engine) Ping(ctx context.Context) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "Ping",
	})
	log := zerowrap.FromCtx(ctx)

	if _, err := e.client.Ping(ctx); err != nil {
		return log.WrapErr(fmt.Errorf("%w: %v", domain.ErrDaemonUnreachable, err), "Docker ping failed")
	}
	return nil
}

// ImageID returns the content identity of ref, or "" when it is not present locally.
func (e *Engine) ImageID(ctx context.Context, ref string) (string, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "ImageID",
		"image":               ref,
	})
	log := zerowrap.FromCtx(ctx)

	resp, err := e.client.ImageInspect(ctx, ref)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", nil
		}
		return "", log.WrapErr(err, "failed to inspect image")
	}
	return resp.ID, nil
}

// ImageExists reports whether an image with the given ID is present locally.
func (e *Engine) ImageExists(ctx context.Context, id string) (bool, error) {
	found, err := e.ImageID(ctx, id)
	if err != nil {
		return false, err
	}
	return found != "", nil
}

// PullImage pulls ref, writing the decoded progress stream to progress.
func (e *Engine) PullImage(ctx context.Context, ref string, progress io.Writer) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "PullImage",
		"image":               ref,
	})
	log := zerowrap.FromCtx(ctx)

	log.Info().Msg("pulling image")

	reader, err := e.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return log.WrapErr(err, "failed to pull image")
	}
	defer reader.Close()

	if progress == nil {
		progress = io.Discard
	}

	// Errors reported inside the stream surface here.
	if err := jsonmessage.DisplayJSONMessagesStream(reader, progress, 0, false, nil); err != nil {
		return log.WrapErr(err, "failed to read pull response")
	}

	log.Info().Msg("image pulled successfully")
	return nil
}

// TagImage points targetRef at the image identified by sourceRef.
func (e *Engine) TagImage(ctx context.Context, sourceRef, targetRef string) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "TagImage",
		"source":              sourceRef,
		"target":              targetRef,
	})
	log := zerowrap.FromCtx(ctx)

	if err := e.client.ImageTag(ctx, sourceRef, targetRef); err != nil {
		return log.WrapErr(err, "failed to tag image")
	}

	log.Info().Msg("image tagged")
	return nil
}

// ListImages lists tagged local images.
func (e *Engine) ListImages(ctx context.Context) ([]domain.LocalImage, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "ListImages",
	})
	log := zerowrap.FromCtx(ctx)

	images, err := e.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, log.WrapErr(err, "failed to list images")
	}

	var result []domain.LocalImage
	for _, img := range images {
		var tags []string
		for _, tag := range img.RepoTags {
			if tag != untaggedRef {
				tags = append(tags, tag)
			}
		}
		if len(tags) == 0 {
			continue
		}
		sort.Strings(tags)
		result = append(result, domain.LocalImage{ID: img.ID, Tags: tags})
	}

	return result, nil
}

// ImagesInUse returns the IDs of images referenced by any container, running or not.
func (e *Engine) ImagesInUse(ctx context.Context) (map[string]bool, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "ImagesInUse",
	})
	log := zerowrap.FromCtx(ctx)

	containers, err := e.client.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, log.WrapErr(err, "failed to list containers")
	}

	inUse := make(map[string]bool, len(containers))
	for _, c := range containers {
		if c.ImageID != "" {
			inUse[c.ImageID] = true
		}
	}
	return inUse, nil
}

// ListVolumes returns the sorted names of all volumes.
func (e *Engine) ListVolumes(ctx context.Context) ([]string, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "ListVolumes",
	})
	log := zerowrap.FromCtx(ctx)

	resp, err := e.client.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, log.WrapErr(err, "failed to list volumes")
	}

	names := make([]string, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v != nil {
			names = append(names, v.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// VolumeExists checks if a Docker volume exists.
func (e *Engine) VolumeExists(ctx context.Context, name string) (bool, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "VolumeExists",
		"volume":              name,
	})
	log := zerowrap.FromCtx(ctx)

	_, err := e.client.VolumeInspect(ctx, name)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return false, nil
		}
		return false, log.WrapErr(err, "failed to inspect volume")
	}
	return true, nil
}

// CreateVolume creates a new Docker volume.
func (e *Engine) CreateVolume(ctx context.Context, name string) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "CreateVolume",
		"volume":              name,
	})
	log := zerowrap.FromCtx(ctx)

	if _, err := e.client.VolumeCreate(ctx, volume.CreateOptions{Name: name}); err != nil {
		return log.WrapErr(err, "failed to create volume")
	}

	log.Info().Msg("volume created")
	return nil
}

// ContainersUsingVolume returns containers in any state that mount the volume.
// Helper containers are excluded.
func (e *Engine) ContainersUsingVolume(ctx context.Context, name string) ([]domain.Container, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "ContainersUsingVolume",
		"volume":              name,
	})
	log := zerowrap.FromCtx(ctx)

	containers, err := e.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("volume", name)),
	})
	if err != nil {
		return nil, log.WrapErr(err, "failed to list containers")
	}

	var result []domain.Container
	for _, c := range containers {
		if c.Labels[domain.LabelHelper] == "true" {
			continue
		}
		cname := ""
		if len(c.Names) > 0 {
			cname = strings.TrimPrefix(c.Names[0], "/")
		}
		result = append(result, domain.Container{
			ID:     c.ID,
			Name:   cname,
			Image:  c.Image,
			State:  string(c.State),
			Labels: c.Labels,
		})
	}

	return result, nil
}
