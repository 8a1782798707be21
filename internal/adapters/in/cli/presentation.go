package cli

import (
	"fmt"
	"io"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func writeLine(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, msg)
}

func renderTitle(msg string) string {
	return styles.Theme.Title.Render(msg)
}

func renderMuted(msg string) string {
	return styles.Theme.Muted.Render(msg)
}

func renderMeta(label, value string) string {
	return styles.Theme.Bold.Render(label) + " " + styles.Theme.Muted.Render(value)
}

// renderOutputLine styles one classified archiver output line.
func renderOutputLine(line domain.OutputLine) string {
	switch line.Class {
	case domain.OutputSuccess:
		return styles.Theme.Success.Render(line.Text)
	case domain.OutputError:
		return styles.Theme.Error.Render(line.Text)
	case domain.OutputProgress:
		return styles.Theme.Muted.Render(line.Text)
	default:
		return styles.Theme.Body.Render(line.Text)
	}
}

func ownerLabel(owner domain.VolumeOwner) string {
	if owner.Standalone() {
		return "-"
	}
	return owner.Application
}
