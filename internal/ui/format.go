// Package ui renders recorded history for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kyleking/gh-metahistory/internal/metadata"
)

// TruncateWithEllipsis shortens s to at most max cells, ending in "…".
func TruncateWithEllipsis(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// PadRight pads s with spaces to length cells. Longer strings are returned
// unchanged.
func PadRight(s string, length int) string {
	if w := lipgloss.Width(s); w < length {
		return s + strings.Repeat(" ", length-w)
	}
	return s
}

// ShortSHA returns the first seven characters of a commit hash.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// Summary describes one metadata value in a single line.
func Summary(d metadata.Data) string {
	switch m := d.Metadata.(type) {
	case metadata.TestCoverage:
		return fmt.Sprintf("line %.1f%%  stmt %.1f%%  fn %.1f%%  branch %.1f%%", m.Line, m.Statement, m.Function, m.Branch)
	case metadata.TestResult:
		return fmt.Sprintf("%d passed  %d failed  %d skipped", m.Pass, m.Fail, m.Skip)
	case metadata.CodeQuality:
		return "rating " + m.QualityRating
	case metadata.Documentation:
		return "documentation"
	default:
		return ""
	}
}

// KindOf returns the type tag of d, or "" when unset.
func KindOf(d metadata.Data) string {
	if d.Metadata == nil {
		return ""
	}
	return string(d.Metadata.Kind())
}
