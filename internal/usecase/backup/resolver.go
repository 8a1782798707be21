package backup

import (
	"context"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// Resolver maps a volume to the application owning it.
type Resolver struct {
	engine   out.ContainerEngine
	registry out.ApplicationRegistry
}

// NewResolver creates a volume ownership resolver.
func NewResolver(engine out.ContainerEngine, registry out.ApplicationRegistry) *Resolver {
	return &Resolver{engine: engine, registry: registry}
}

// Resolve returns the owner of volume. A volume with no mounting container,
// no compose project label, or a project whose directory cannot be found is
// standalone; the last case is logged as domain.ErrOwnershipUnresolved.
func (r *Resolver) Resolve(ctx context.Context, volume string) (domain.VolumeOwner, error) {
	log := zerowrap.FromCtx(ctx)

	containers, err := r.engine.ContainersUsingVolume(ctx, volume)
	if err != nil {
		return domain.VolumeOwner{}, fmt.Errorf("failed to find containers using %s: %w", volume, err)
	}

	project := ""
	for _, c := range containers {
		if p := c.Project(); p != "" {
			project = p
			break
		}
	}
	if project == "" {
		return domain.VolumeOwner{}, nil
	}

	app, err := r.registry.Resolve(ctx, project)
	if err != nil || !app.HasComposeFile() {
		log.Warn().
			Err(fmt.Errorf("%w: project %s", domain.ErrOwnershipUnresolved, project)).
			Str("volume", volume).
			Msg("volume treated as standalone")
		return domain.VolumeOwner{}, nil
	}

	return domain.VolumeOwner{Application: app.Name, Dir: app.Dir}, nil
}
