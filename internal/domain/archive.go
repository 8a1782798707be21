package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PasswordMode selects where the archive password comes from.
type PasswordMode string

const (
	PasswordNone    PasswordMode = "none"
	PasswordSession PasswordMode = "session"
	PasswordStored  PasswordMode = "stored"
)

// NamingMode selects the archive naming convention.
type NamingMode string

const (
	NamingDefault NamingMode = "default"
	NamingTagged  NamingMode = "tagged"
	NamingCustom  NamingMode = "custom"
	NamingPrecise NamingMode = "precise"
)

const (
	ArchiveExtension  = ".7z"
	archiveDateLayout = "2006-01-02"
	archiveTimeLayout = "15-04-05"
)

// ArchiveOptions are the user choices for sealing a backup session directory.
type ArchiveOptions struct {
	SourceDir        string
	OutputDir        string
	Password         PasswordMode
	Naming           NamingMode
	Tag              string
	CustomName       string
	SplitSize        string
	CompressionLevel int
}

// ArchiveName returns the file name (with extension) for the chosen naming mode.
func (o ArchiveOptions) ArchiveName(now time.Time) (string, error) {
	date := now.Format(archiveDateLayout)
	switch o.Naming {
	case NamingDefault, "":
		return "backup_" + date + ArchiveExtension, nil
	case NamingTagged:
		tag := strings.TrimSpace(o.Tag)
		if tag == "" {
			return "", fmt.Errorf("%w: tagged naming requires a tag", ErrConfigInvalid)
		}
		return fmt.Sprintf("backup_%s_%s%s", date, tag, ArchiveExtension), nil
	case NamingCustom:
		name := strings.TrimSuffix(strings.TrimSpace(o.CustomName), ArchiveExtension)
		if name == "" {
			return "", fmt.Errorf("%w: custom naming requires a name", ErrConfigInvalid)
		}
		return name + ArchiveExtension, nil
	case NamingPrecise:
		return fmt.Sprintf("backup_%s_%s%s", date, now.Format(archiveTimeLayout), ArchiveExtension), nil
	default:
		return "", fmt.Errorf("%w: unknown naming mode %q", ErrConfigInvalid, o.Naming)
	}
}

// CollisionName appends a time suffix before the extension.
func CollisionName(name string, now time.Time) string {
	base := strings.TrimSuffix(name, ArchiveExtension)
	return fmt.Sprintf("%s_%s%s", base, now.Format(archiveTimeLayout), ArchiveExtension)
}

// ArchiveResult describes a produced archive.
type ArchiveResult struct {
	Path          string
	Parts         []string
	SizeBytes     int64
	Encrypted     bool
	Verified      bool
	SourceDeleted bool
}

// OutputClass classifies a line of archiver output for display.
type OutputClass string

const (
	OutputInfo     OutputClass = "info"
	OutputProgress OutputClass = "progress"
	OutputSuccess  OutputClass = "success"
	OutputError    OutputClass = "error"
)

// OutputLine is one classified line of archiver output.
type OutputLine struct {
	Class OutputClass
	Text  string
}

var progressLine = regexp.MustCompile(`^\s*\d{1,3}%`)

// ClassifyLine assigns a display class to a raw archiver output line.
func ClassifyLine(line string) OutputClass {
	trimmed := strings.TrimSpace(line)
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.Contains(upper, "EVERYTHING IS OK"):
		return OutputSuccess
	case strings.HasPrefix(upper, "ERROR"),
		strings.Contains(upper, "ERRORS:"),
		strings.Contains(upper, "WRONG PASSWORD"),
		strings.Contains(upper, "CAN NOT OPEN"),
		strings.Contains(upper, "CANNOT OPEN"),
		strings.Contains(upper, "DATA ERROR"),
		strings.Contains(upper, "CRC FAILED"):
		return OutputError
	case progressLine.MatchString(trimmed),
		strings.HasPrefix(trimmed, "+ "),
		strings.HasPrefix(trimmed, "- "),
		strings.HasPrefix(trimmed, "T "),
		strings.HasPrefix(upper, "SCANNING"),
		strings.HasPrefix(upper, "ADD NEW DATA"),
		strings.HasPrefix(upper, "TESTING"):
		return OutputProgress
	default:
		return OutputInfo
	}
}
