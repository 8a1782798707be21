package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	t.Cleanup(func() { version, commit, buildDate = "dev", "unknown", "unknown" })

	Set("1.4.0", "", "2026-03-01")

	assert.Equal(t, "1.4.0", Version())
	assert.Equal(t, "unknown", Commit())
	assert.Equal(t, "2026-03-01", BuildDate())
	assert.Equal(t, "1.4.0 (commit unknown, built 2026-03-01)", String())
}
