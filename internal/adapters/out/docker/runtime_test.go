package docker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func newEngineForHTTPServer(t *testing.T, server *httptest.Server) *Engine {
	t.Helper()

	host := strings.TrimPrefix(server.URL, "http://")
	cli, err := client.NewClientWithOpts(client.WithHost("tcp://"+host), client.WithVersion("1.41"), client.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	return NewEngineWithClient(cli, "alpine:3.20")
}

func TestEngine_ImageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/json"))

		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"No such image: missing:latest"}`))
			return
		}
		_, _ = w.Write([]byte(`{"Id":"sha256:abc123"}`))
	}))
	defer server.Close()

	engine := newEngineForHTTPServer(t, server)

	id, err := engine.ImageID(context.Background(), "nginx:latest")
	require.NoError(t, err)
	assert.Equal(t, "sha256:abc123", id)

	id, err = engine.ImageID(context.Background(), "missing:latest")
	require.NoError(t, err)
	assert.Empty(t, id)

	exists, err := engine.ImageExists(context.Background(), "missing:latest")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEngine_ListImages_SkipsUntagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.41/images/json", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Id":"sha256:a","RepoTags":["redis:7","redis:latest"]},
			{"Id":"sha256:b","RepoTags":["<none>:<none>"]},
			{"Id":"sha256:c","RepoTags":[]}
		]`))
	}))
	defer server.Close()

	images, err := newEngineForHTTPServer(t, server).ListImages(context.Background())

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, domain.LocalImage{ID: "sha256:a", Tags: []string{"redis:7", "redis:latest"}}, images[0])
}

func TestEngine_ImagesInUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.41/containers/json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("all"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Id":"c1","ImageID":"sha256:a","State":"running"},
			{"Id":"c2","ImageID":"sha256:b","State":"exited"}
		]`))
	}))
	defer server.Close()

	inUse, err := newEngineForHTTPServer(t, server).ImagesInUse(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"sha256:a": true, "sha256:b": true}, inUse)
}

func TestEngine_ContainersUsingVolume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.41/containers/json", r.URL.Path)

		parsedFilters, err := filters.FromJSON(r.URL.Query().Get("filters"))
		require.NoError(t, err)
		assert.Equal(t, []string{"web_data"}, parsedFilters.Get("volume"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Id":"c1","Names":["/web-app-1"],"Image":"nginx","State":"exited","Labels":{"com.docker.compose.project":"web"}},
			{"Id":"h1","Names":["/helper"],"Image":"alpine:3.20","State":"running","Labels":{"stackkeeper.helper":"true"}}
		]`))
	}))
	defer server.Close()

	containers, err := newEngineForHTTPServer(t, server).ContainersUsingVolume(context.Background(), "web_data")

	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, "web-app-1", containers[0].Name)
	assert.Equal(t, "exited", containers[0].State)
	assert.Equal(t, "web", containers[0].Project())
}

func TestEngine_ListVolumes_Sorted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.41/volumes", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Volumes":[{"Name":"zeta"},{"Name":"alpha"}],"Warnings":null}`))
	}))
	defer server.Close()

	volumes, err := newEngineForHTTPServer(t, server).ListVolumes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, volumes)
}

func TestEngine_VolumeExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1.41/volumes/present" {
			_, _ = w.Write([]byte(`{"Name":"present"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no such volume"}`))
	}))
	defer server.Close()

	engine := newEngineForHTTPServer(t, server)

	exists, err := engine.VolumeExists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = engine.VolumeExists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEngine_Ping_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	engine := newEngineForHTTPServer(t, server)
	server.Close()

	err := engine.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDaemonUnreachable)
}
