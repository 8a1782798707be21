package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseImageReference(t *testing.T) {
	tests := []struct {
		name     string
		imageRef string
		wantName string
		wantRef  string
	}{
		{
			name:     "simple image with tag",
			imageRef: "nginx:1.27",
			wantName: "nginx",
			wantRef:  "1.27",
		},
		{
			name:     "digest",
			imageRef: "nginx@sha256:abc123",
			wantName: "nginx",
			wantRef:  "sha256:abc123",
		},
		{
			name:     "registry with port and tag",
			imageRef: "registry.example.com:5000/team/app:v1.0",
			wantName: "registry.example.com:5000/team/app",
			wantRef:  "v1.0",
		},
		{
			name:     "registry with port without tag",
			imageRef: "localhost:5000/app",
			wantName: "localhost:5000/app",
			wantRef:  "latest",
		},
		{
			name:     "untagged",
			imageRef: "ghcr.io/immich-app/immich-server",
			wantName: "ghcr.io/immich-app/immich-server",
			wantRef:  "latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotRef := ParseImageReference(tt.imageRef)
			assert.Equal(t, tt.wantName, gotName, "name mismatch")
			assert.Equal(t, tt.wantRef, gotRef, "reference mismatch")
		})
	}
}

func TestMatchImage(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		ref     string
		want    bool
	}{
		{"repository matches any tag", "postgres", "postgres:16", true},
		{"repository with registry port", "localhost:5000/app", "localhost:5000/app:v2", true},
		{"exact tag", "postgres:16", "postgres:16", true},
		{"different tag", "postgres:16", "postgres:17", false},
		{"implicit latest", "redis:latest", "redis", true},
		{"other repository", "redis", "redis-stack:7", false},
		{"blank pattern", " ", "redis", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchImage(tt.pattern, tt.ref))
		})
	}
}
