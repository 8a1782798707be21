package domain

import (
	"fmt"
	"strings"
	"time"
)

// SessionDirLayout names the timestamped directory created for each backup run.
const SessionDirLayout = "2006-01-02_15-04-05"

// Compressor identifies the streaming compressor used for volume archives.
type Compressor string

const (
	CompressorZstd Compressor = "zstd"
	CompressorGzip Compressor = "gzip"
)

// Extension returns the file extension appended after ".tar.".
func (c Compressor) Extension() string {
	switch c {
	case CompressorGzip:
		return "gz"
	default:
		return "zst"
	}
}

// Valid reports whether c is a supported compressor.
func (c Compressor) Valid() bool {
	return c == CompressorZstd || c == CompressorGzip
}

// ArchiveFileName returns "<volume>.tar.<ext>".
func (c Compressor) ArchiveFileName(volume string) string {
	return fmt.Sprintf("%s.tar.%s", volume, c.Extension())
}

// CompressorForFile returns the compressor matching a volume archive file name,
// along with the volume name it encodes.
func CompressorForFile(name string) (Compressor, string, bool) {
	for _, c := range []Compressor{CompressorZstd, CompressorGzip} {
		suffix := ".tar." + c.Extension()
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return c, strings.TrimSuffix(name, suffix), true
		}
	}
	return "", "", false
}

// VolumeGroup is the set of selected volumes owned by one application.
type VolumeGroup struct {
	Application string
	Dir         string
	Volumes     []string
}

// BackupPlan partitions selected volumes by owner.
type BackupPlan struct {
	Groups     []VolumeGroup
	Standalone []string
}

// VolumeCount returns how many volumes the plan covers.
func (p BackupPlan) VolumeCount() int {
	n := len(p.Standalone)
	for _, g := range p.Groups {
		n += len(g.Volumes)
	}
	return n
}

// VolumeBackupStatus is the outcome of processing one volume.
type VolumeBackupStatus string

const (
	VolumeArchived     VolumeBackupStatus = "archived"
	VolumeSkippedEmpty VolumeBackupStatus = "skipped_empty"
	VolumeFailed       VolumeBackupStatus = "failed"
)

// VolumeBackupResult records what happened to one volume in a session.
type VolumeBackupResult struct {
	Volume      string
	Application string
	Status      VolumeBackupStatus
	Path        string
	Error       string
}

// BackupSession is one backup run.
type BackupSession struct {
	ID        string
	TargetDir string
	StartedAt time.Time
	Duration  time.Duration
	Plan      BackupPlan
	Results   []VolumeBackupResult
	// Errors holds application-level failures (stop/start) keyed by application.
	Errors map[string]string
}

// Failed returns the volumes that could not be archived.
func (s BackupSession) Failed() []VolumeBackupResult {
	var failed []VolumeBackupResult
	for _, r := range s.Results {
		if r.Status == VolumeFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RestoreResult records what happened to one volume during restore.
type RestoreResult struct {
	Volume      string
	Application string
	Restored    bool
	Skipped     bool
	Error       string
}
