package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/zerowrap"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/pkg/validation"
)

// Registry implements out.ApplicationRegistry over two directory roots:
// the primary root and its managed-applications subdirectory.
type Registry struct {
	root       string
	managedDir string
	log        zerowrap.Logger
}

// NewRegistry creates a registry. managedDir is resolved against root unless absolute.
func NewRegistry(root, managedDir string, log zerowrap.Logger) *Registry {
	root = ExpandTilde(root)
	managedDir = ExpandTilde(managedDir)
	if managedDir != "" && !filepath.IsAbs(managedDir) {
		managedDir = filepath.Join(root, managedDir)
	}
	return &Registry{root: root, managedDir: managedDir, log: log}
}

func (r *Registry) roots() []string {
	if r.managedDir == "" || r.managedDir == r.root {
		return []string{r.root}
	}
	return []string{r.root, r.managedDir}
}

// Discover returns the sorted, de-duplicated application names found under both roots.
func (r *Registry) Discover(ctx context.Context) ([]string, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "registry",
		zerowrap.FieldAction:  "discover",
	})
	log := zerowrap.FromCtx(ctx)

	seen := make(map[string]bool)
	for _, root := range r.roots() {
		entries, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Debug().Str("root", root).Msg("application root does not exist")
				continue
			}
			return nil, log.WrapErr(err, "failed to read application root")
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if composeFileIn(filepath.Join(root, entry.Name())) != "" {
				seen[entry.Name()] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Resolve checks the primary root then the managed subdirectory; the first
// directory holding a compose file wins.
func (r *Registry) Resolve(_ context.Context, name string) (domain.Application, error) {
	if err := validation.ValidateApplicationName(name); err != nil {
		return domain.Application{}, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, err)
	}

	var fallback string
	for _, root := range r.roots() {
		dir := filepath.Join(root, name)
		if validation.ValidatePathWithinRoot(root, dir) != nil || !isDir(dir) {
			continue
		}
		if compose := composeFileIn(dir); compose != "" {
			return domain.Application{Name: name, Dir: dir, ComposeFile: compose}, nil
		}
		if fallback == "" {
			fallback = dir
		}
	}

	if fallback != "" {
		return domain.Application{Name: name, Dir: fallback}, nil
	}
	return domain.Application{}, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, name)
}

type composeDocument struct {
	Services map[string]struct {
		Image string `yaml:"image"`
	} `yaml:"services"`
}

// Images returns the interpolated image references declared by the application's
// services, sorted and de-duplicated. Services without an image (build-only) are skipped.
func (r *Registry) Images(ctx context.Context, app domain.Application) ([]string, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "adapter",
		zerowrap.FieldAdapter:  "registry",
		zerowrap.FieldAction:   "images",
		zerowrap.FieldEntityID: app.Name,
	})
	log := zerowrap.FromCtx(ctx)

	if !app.HasComposeFile() {
		return nil, fmt.Errorf("%w: %s", domain.ErrComposeFileMissing, app.Name)
	}

	data, err := os.ReadFile(app.ComposeFile)
	if err != nil {
		return nil, log.WrapErr(err, "failed to read compose file")
	}

	var doc composeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, log.WrapErr(err, "failed to parse compose file")
	}

	env := r.environment(app)
	seen := make(map[string]bool)
	images := make([]string, 0, len(doc.Services))
	for service, def := range doc.Services {
		image := strings.TrimSpace(Interpolate(def.Image, env))
		if image == "" {
			log.Debug().Str("service", service).Msg("service declares no image")
			continue
		}
		if !seen[image] {
			seen[image] = true
			images = append(images, image)
		}
	}
	sort.Strings(images)
	return images, nil
}

// environment merges the process environment with the application's .env file.
// The process environment wins, as with docker compose.
func (r *Registry) environment(app domain.Application) map[string]string {
	env := make(map[string]string)
	if dotenv, err := godotenv.Read(filepath.Join(app.Dir, ".env")); err == nil {
		for k, v := range dotenv {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Interpolate expands $VAR, ${VAR}, ${VAR:-default} and ${VAR-default} using env.
func Interpolate(value string, env map[string]string) string {
	return os.Expand(value, func(key string) string {
		if name, def, ok := strings.Cut(key, ":-"); ok {
			if v := env[name]; v != "" {
				return v
			}
			return def
		}
		if name, def, ok := strings.Cut(key, "-"); ok {
			if v, set := env[name]; set {
				return v
			}
			return def
		}
		return env[key]
	})
}

func composeFileIn(dir string) string {
	for _, name := range domain.ComposeFileNames {
		path := filepath.Join(dir, name)
		if isFile(path) {
			return path
		}
	}
	return ""
}
