package domain

// Label keys read from or written to container metadata.
const (
	// Set by docker compose on every container it creates.
	LabelComposeProject = "com.docker.compose.project"

	// Set on short-lived helper containers so they can be found on interrupt.
	LabelHelper       = "stackkeeper.helper"
	LabelHelperVolume = "stackkeeper.helper.volume"
)
