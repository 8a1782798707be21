package domain_test

import (
	"testing"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func TestLabelConstants(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{domain.LabelComposeProject, "com.docker.compose.project"},
		{domain.LabelHelper, "stackkeeper.helper"},
		{domain.LabelHelperVolume, "stackkeeper.helper.volume"},
	}

	for _, tt := range tests {
		if tt.name != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, tt.name)
		}
	}
}

func TestContainerProject(t *testing.T) {
	c := domain.Container{Labels: map[string]string{domain.LabelComposeProject: "nextcloud"}}
	if got := c.Project(); got != "nextcloud" {
		t.Errorf("expected nextcloud, got %s", got)
	}
	if got := (domain.Container{}).Project(); got != "" {
		t.Errorf("expected empty project, got %s", got)
	}
}
