package domain

// Action is a request for one engine operation. The concrete types below are
// the only implementations.
type Action interface {
	actionKind() string
}

// StartAction starts an application.
type StartAction struct{ App string }

// StopAction stops an application.
type StopAction struct{ App string }

// UpdateAction pulls an application's images and restarts it when they changed.
type UpdateAction struct {
	App   string
	Force bool
}

// RollbackAction re-points an image to a historical identity and recreates the application.
type RollbackAction struct {
	App   string
	Entry HistoryEntry
}

// BackupAction archives the selected volumes into a new session under TargetRoot.
type BackupAction struct {
	Volumes    []string
	TargetRoot string
}

// RestoreAction restores volumes from a session directory or sealed archive.
type RestoreAction struct {
	Source string
}

// ArchiveAction seals a session directory.
type ArchiveAction struct {
	Options ArchiveOptions
}

func (StartAction) actionKind() string    { return "start" }
func (StopAction) actionKind() string     { return "stop" }
func (UpdateAction) actionKind() string   { return "update" }
func (RollbackAction) actionKind() string { return "rollback" }
func (BackupAction) actionKind() string   { return "backup" }
func (RestoreAction) actionKind() string  { return "restore" }
func (ArchiveAction) actionKind() string  { return "archive" }

// ActionKind returns the short name of an action, for logs.
func ActionKind(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionKind()
}

// ActionResult is the typed response to an Action. At most one payload field
// is set, matching the action kind.
type ActionResult struct {
	Kind    string
	App     string
	Update  *UpdateResult
	Session *BackupSession
	Restore []RestoreResult
	Archive *ArchiveResult
}
