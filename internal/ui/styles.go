package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors used throughout the output.
var (
	PrimaryColor   = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#7D56F4"}
	SecondaryColor = lipgloss.AdaptiveColor{Light: "#0B7A75", Dark: "#43BF6D"}
	AccentColor    = lipgloss.AdaptiveColor{Light: "#B25E00", Dark: "#F2A03D"}
	MutedColor     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
	SoftMutedColor = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#9B9B9B"}
	TextColor      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#E4E4E4"}
	FailColor      = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF5F5F"}
)

// Styles for rendered history.
var (
	BorderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(SecondaryColor).Padding(0, 1)

	NormalStyle = lipgloss.NewStyle().Foreground(TextColor)

	SubtitleStyle = lipgloss.NewStyle().Foreground(SoftMutedColor)

	LinkStyle = lipgloss.NewStyle().Foreground(MutedColor).Underline(true)

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(SecondaryColor).Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().Foreground(TextColor).Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)

	FailStyle = lipgloss.NewStyle().Bold(true).Foreground(FailColor)

	HighlightStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
)
