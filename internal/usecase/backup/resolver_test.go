package backup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	outmocks "github.com/stackkeeper/stackkeeper/internal/boundaries/out/mocks"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func labelled(project string) []domain.Container {
	return []domain.Container{
		{ID: "unlabelled"},
		{ID: "c1", State: "exited", Labels: map[string]string{domain.LabelComposeProject: project}},
	}
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		containers []domain.Container
		setup      func(r *outmocks.MockApplicationRegistry)
		want       domain.VolumeOwner
	}{
		{
			name: "no mounting container",
			want: domain.VolumeOwner{},
		},
		{
			name:       "container without project label",
			containers: []domain.Container{{ID: "c1"}},
			want:       domain.VolumeOwner{},
		},
		{
			name:       "stopped container with project label",
			containers: labelled("app1"),
			setup: func(r *outmocks.MockApplicationRegistry) {
				r.On("Resolve", mock.Anything, "app1").Return(app1, nil)
			},
			want: domain.VolumeOwner{Application: "app1", Dir: "/srv/app1"},
		},
		{
			name:       "project directory missing",
			containers: labelled("gone"),
			setup: func(r *outmocks.MockApplicationRegistry) {
				r.On("Resolve", mock.Anything, "gone").Return(domain.Application{}, domain.ErrApplicationNotFound)
			},
			want: domain.VolumeOwner{},
		},
		{
			name:       "project directory without compose file",
			containers: labelled("bare"),
			setup: func(r *outmocks.MockApplicationRegistry) {
				r.On("Resolve", mock.Anything, "bare").Return(domain.Application{Name: "bare", Dir: "/srv/bare"}, nil)
			},
			want: domain.VolumeOwner{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := outmocks.NewMockContainerEngine(t)
			registry := outmocks.NewMockApplicationRegistry(t)
			engine.On("ContainersUsingVolume", mock.Anything, "data").Return(tt.containers, nil)
			if tt.setup != nil {
				tt.setup(registry)
			}

			owner, err := NewResolver(engine, registry).Resolve(context.Background(), "data")
			require.NoError(t, err)
			assert.Equal(t, tt.want, owner)
			assert.Equal(t, tt.want.Application == "", owner.Standalone())
		})
	}
}

func TestResolver_EngineError(t *testing.T) {
	engine := outmocks.NewMockContainerEngine(t)
	registry := outmocks.NewMockApplicationRegistry(t)
	engine.On("ContainersUsingVolume", mock.Anything, "data").
		Return([]domain.Container(nil), domain.ErrDaemonUnreachable)

	_, err := NewResolver(engine, registry).Resolve(context.Background(), "data")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDaemonUnreachable))
}
