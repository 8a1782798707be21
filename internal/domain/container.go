// Package domain contains pure business types without external dependencies.
// These types are used throughout the application and have no tags or framework dependencies.
package domain

// Container is the subset of container state needed to resolve volume ownership.
type Container struct {
	ID     string
	Name   string
	Image  string
	State  string
	Labels map[string]string
}

// Project returns the compose project label, or an empty string.
func (c Container) Project() string {
	if c.Labels == nil {
		return ""
	}
	return c.Labels[LabelComposeProject]
}
