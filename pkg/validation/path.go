// Package validation provides input validation functions for names that end up
// in file paths or container engine calls.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Application names are directory names under the application roots:
// letters, digits, and separators (., _, -), starting with a letter or digit.
var applicationNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Volume names follow the Docker engine rule for named volumes.
var volumeNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]+$`)

// Archive names may additionally contain spaces, but no path separators.
var archiveNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]*$`)

// MaxNameLength is the maximum allowed length for application and volume names.
const MaxNameLength = 255

// ValidateApplicationName validates an application directory name.
// Returns an error if the name is invalid or could enable path traversal.
func ValidateApplicationName(name string) error {
	return validateName("application name", name, applicationNameRegex, true)
}

// ValidateVolumeName validates a Docker volume name. Volume names only appear
// inside "<volume>.tar.<ext>" file names, so ".." within a name is accepted.
func ValidateVolumeName(name string) error {
	return validateName("volume name", name, volumeNameRegex, false)
}

// ValidateArchiveName validates a user-supplied archive base name or tag.
func ValidateArchiveName(name string) error {
	return validateName("archive name", name, archiveNameRegex, true)
}

func validateName(kind, name string, format *regexp.Regexp, pathComponent bool) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%s too long: %d chars (max %d)", kind, len(name), MaxNameLength)
	}

	if pathComponent && strings.Contains(name, "..") {
		return fmt.Errorf("%s contains path traversal sequence", kind)
	}

	if !format.MatchString(name) {
		return fmt.Errorf("invalid %s format: %q", kind, name)
	}

	return nil
}

// ValidatePathWithinRoot validates that a constructed path stays within the root directory.
// This provides defense-in-depth after filepath.Join operations.
func ValidatePathWithinRoot(rootDir, fullPath string) error {
	cleanRoot := filepath.Clean(rootDir)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) && cleanPath != cleanRoot {
		return fmt.Errorf("path escapes root directory")
	}

	return nil
}
