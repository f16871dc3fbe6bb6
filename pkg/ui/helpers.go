package ui

import (
	"fmt"
	"time"

	"github.com/mattn/go-runewidth"
)

// truncate shortens s to max visual width (cells), appending an ellipsis when
// it had to cut. go-runewidth handles wide characters correctly.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	const suffix = "…"
	if maxWidth <= runewidth.StringWidth(suffix) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth-runewidth.StringWidth(suffix), "") + suffix
}

// formatTimeRel returns a relative time string ("2m ago", "now").
func formatTimeRel(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
