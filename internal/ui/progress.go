package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vietdv277/autoclass/pkg/types"
)

const (
	barWidthMin = 20
	barWidthMax = 60
)

// ResultMsg reports one finished bucket to the progress view.
type ResultMsg struct {
	Result types.MigrationResult
}

// DoneMsg tells the progress view that the run is over.
type DoneMsg struct{}

// ProgressModel is the bubbletea model that renders batch progress.
type ProgressModel struct {
	total     int
	summary   types.Summary
	last      string
	termWidth int
	cancel    func()
	cancelled bool
	quitting  bool
}

// NewProgressModel creates a progress view for total buckets. cancel is
// called when the user presses Ctrl-C.
func NewProgressModel(total int, cancel func()) ProgressModel {
	return ProgressModel{total: total, cancel: cancel, termWidth: 80}
}

// Init implements tea.Model
func (m ProgressModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.cancelled {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case ResultMsg:
		m.summary.Add(msg.Result)
		m.last = msg.Result.Identity.ProjectID + "/" + msg.Result.Identity.BucketName
		return m, nil

	case DoneMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// Done returns how many buckets have finished.
func (m ProgressModel) Done() int {
	return m.summary.Total
}

// View implements tea.Model
func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}

	barWidth := m.termWidth - 30
	if barWidth < barWidthMin {
		barWidth = barWidthMin
	}
	if barWidth > barWidthMax {
		barWidth = barWidthMax
	}

	filled := 0
	if m.total > 0 {
		filled = m.summary.Total * barWidth / m.total
	}

	var sb strings.Builder
	sb.WriteString(MigratedStyle.Render(strings.Repeat("█", filled)))
	sb.WriteString(MutedStyle.Render(strings.Repeat("░", barWidth-filled)))
	sb.WriteString(fmt.Sprintf(" %d/%d\n", m.summary.Total, m.total))
	sb.WriteString(SummaryLine(m.summary))
	sb.WriteString("\n")

	switch {
	case m.cancelled:
		sb.WriteString(ErrorStyle.Render("  cancelling, waiting for in-flight buckets..."))
	case m.last != "":
		sb.WriteString(MutedStyle.Render("  last: " + padRight(m.last, barWidth)))
	}
	sb.WriteString("\n")
	return sb.String()
}
