package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vietdv277/autoclass/pkg/types"
)

// Column widths: project, bucket, status
var columnWidths = []int{24, 36, 48}

// maxRows caps how many result rows are drawn; the CSV report has all of them.
const maxRows = 50

// PrintResultTable draws the results that need attention (errors and dry-run
// changes) in a box table, followed by the run summary.
func PrintResultTable(w io.Writer, results []types.MigrationResult, summary types.Summary) {
	var rows []types.MigrationResult
	for _, res := range results {
		if res.Status.IsError() || res.Status == types.StatusDryRun {
			rows = append(rows, res)
		}
	}

	if len(rows) > 0 {
		shown := rows
		if len(shown) > maxRows {
			shown = shown[:maxRows]
		}
		fmt.Fprint(w, renderTable(shown))
		if hidden := len(rows) - len(shown); hidden > 0 {
			fmt.Fprintln(w, MutedStyle.Render(fmt.Sprintf("  ... %d more rows in the report", hidden)))
		}
	}

	fmt.Fprintln(w, SummaryLine(summary))
}

func renderTable(rows []types.MigrationResult) string {
	headers := []string{"Project", "Bucket", "Status"}

	var sb strings.Builder

	// Top border
	writeRule(&sb, TopLeft, TopT, TopRight)

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		sb.WriteString(HeaderStyle.Render(" " + padRight(h, columnWidths[i]) + " "))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	// Header separator
	writeRule(&sb, LeftT, Cross, RightT)

	// Data rows
	for _, res := range rows {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(ProjectStyle.Render(" " + padRight(res.Identity.ProjectID, columnWidths[0]) + " "))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(BucketStyle.Render(" " + padRight(res.Identity.BucketName, columnWidths[1]) + " "))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(formatStatus(res.Status, columnWidths[2]))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	// Bottom border
	writeRule(&sb, BottomLeft, BottomT, BottomRight)

	return sb.String()
}

func writeRule(sb *strings.Builder, left, mid, right string) {
	sb.WriteString(BorderStyle.Render(left))
	for i, w := range columnWidths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(columnWidths)-1 {
			sb.WriteString(BorderStyle.Render(mid))
		}
	}
	sb.WriteString(BorderStyle.Render(right))
	sb.WriteString("\n")
}

// statusStyle picks the indicator and style for a status.
func statusStyle(status types.MigrationStatus) (string, lipgloss.Style) {
	switch {
	case status == types.StatusMigrated:
		return "●", MigratedStyle
	case status == types.StatusSkipped:
		return "○", SkippedStyle
	case status == types.StatusDryRun:
		return "◐", DryRunStyle
	default:
		return "✗", ErrorStyle
	}
}

func formatStatus(status types.MigrationStatus, width int) string {
	indicator, style := statusStyle(status)
	return style.Render(" " + indicator + " " + padRight(string(status), width-2) + " ")
}

// SummaryLine renders "N buckets (x migrated, y skipped, ...)".
func SummaryLine(s types.Summary) string {
	var parts []string
	if s.Migrated > 0 {
		parts = append(parts, MigratedStyle.Render(fmt.Sprintf("%d migrated", s.Migrated)))
	}
	if s.Skipped > 0 {
		parts = append(parts, SkippedStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	if s.DryRun > 0 {
		parts = append(parts, DryRunStyle.Render(fmt.Sprintf("%d to migrate", s.DryRun)))
	}
	if s.Errors > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", s.Errors)))
	}

	line := fmt.Sprintf("  %d buckets", s.Total)
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	if s.Elapsed > 0 {
		line += MutedStyle.Render(fmt.Sprintf(" in %s", s.Elapsed.Round(100*time.Millisecond)))
	}
	return line
}
