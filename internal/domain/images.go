package domain

import "time"

const (
	// HistoryLimit is the maximum number of entries kept per application.
	HistoryLimit = 50
	// RollbackCandidateLimit caps how many locally present entries are offered.
	RollbackCandidateLimit = 10
	// HistoryFileName is the per-application history log, stored in the application directory.
	HistoryFileName = ".stackkeeper_history"
	// HistoryTimeLayout is the timestamp layout of a history line.
	HistoryTimeLayout = "2006-01-02 15:04:05"
)

// ImageRef pairs an image name with its content identity.
// An empty ID means the image is not present locally.
type ImageRef struct {
	Name string
	ID   string
}

// Known reports whether the identity is locally known.
func (r ImageRef) Known() bool {
	return r.ID != ""
}

// HistoryEntry is one recorded image identity for an application.
type HistoryEntry struct {
	Timestamp time.Time
	ImageName string
	ImageID   string
}

// ShortID returns the image ID without its algorithm prefix, truncated to 12 chars.
func (e HistoryEntry) ShortID() string {
	id := e.ImageID
	if len(id) > 7 && id[:7] == "sha256:" {
		id = id[7:]
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// LocalImage describes a tagged image present on the engine.
type LocalImage struct {
	ID   string
	Tags []string
}

// PullOutcome reports the result of refreshing a single image.
type PullOutcome struct {
	Image   string
	Changed bool
	Err     error
}

// UpdateResult summarizes an update run for one application.
type UpdateResult struct {
	Application string
	Skipped     bool
	WasRunning  bool
	Force       bool
	UpdateFound bool
	Restarted   bool
	Pulled      []PullOutcome
	Ignored     []string
}

// Failed returns the pull outcomes that carry an error.
func (r UpdateResult) Failed() []PullOutcome {
	var failed []PullOutcome
	for _, p := range r.Pulled {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}
