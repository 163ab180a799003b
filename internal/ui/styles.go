package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
	TopT        = "┬"
	BottomT     = "┴"
	Cross       = "┼"
)

// Color palette
const (
	ColorBorder   = "240"
	ColorHeader   = "252"
	ColorProject  = "214"
	ColorBucket   = "81"
	ColorMigrated = "82"
	ColorSkipped  = "245"
	ColorDryRun   = "214"
	ColorError    = "203"
	ColorMuted    = "240"
	ColorGCP      = "33"
)

// Shared styles
var (
	BorderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	ProjectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorProject))
	BucketStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBucket))
	MigratedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMigrated))
	SkippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSkipped))
	DryRunStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDryRun))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	MutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	GCPStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorGCP))
)

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}
