package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/chartsnap/pkg/batch"
)

// List styles
var (
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	barDoneStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BatchModel - Live batch progress
// =============================================================================

const (
	recentRows = 8
	barWidth   = 40
)

// progressMsg reports one finished item.
type progressMsg batch.Progress

// batchDoneMsg ends the program with the run's result.
type batchDoneMsg struct {
	report *batch.Report
	err    error
}

type tickMsg time.Time

// BatchModel is the bubbletea model showing a running batch.
type BatchModel struct {
	Total     int
	Done      int
	Succeeded int
	Failed    int
	Skipped   int
	Recent    []batch.Outcome
	Started   time.Time
	Now       time.Time
	Report    *batch.Report
	Err       error
	Aborted   bool

	// cancel stops the run when the user quits.
	cancel func()
}

// NewBatchModel creates a model for a plan of total items. cancel is called
// when the user quits early.
func NewBatchModel(total int, cancel func()) BatchModel {
	now := time.Now()
	return BatchModel{Total: total, Started: now, Now: now, cancel: cancel}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m BatchModel) Init() tea.Cmd {
	return tick()
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Aborted && m.cancel != nil {
				m.cancel()
			}
			m.Aborted = true
			return m, nil
		}
	case tickMsg:
		m.Now = time.Time(msg)
		return m, tick()
	case progressMsg:
		m.Done = msg.Done
		switch msg.Outcome.Status {
		case batch.StatusSucceeded:
			m.Succeeded++
		case batch.StatusFailed:
			m.Failed++
		case batch.StatusSkipped:
			m.Skipped++
		}
		m.Recent = append(m.Recent, msg.Outcome)
		if len(m.Recent) > recentRows {
			m.Recent = m.Recent[len(m.Recent)-recentRows:]
		}
	case batchDoneMsg:
		m.Report = msg.report
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m BatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Batch export"))
	b.WriteString("\n")
	hint := "q quit"
	if m.Aborted {
		hint = "stopping, restoring settings..."
	}
	b.WriteString(listDimStyle.Render(hint))
	b.WriteString("\n\n")

	b.WriteString(progressBar(m.Done, m.Total, barWidth))
	b.WriteString(fmt.Sprintf("  %s/%d  %s\n",
		StyleNumber.Render(fmt.Sprint(m.Done)), m.Total,
		listDimStyle.Render(m.Now.Sub(m.Started).Round(time.Second).String())))
	b.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d\n\n",
		styleIconSuccess.Render(iconSuccess), m.Succeeded,
		styleIconError.Render(iconError), m.Failed,
		styleIconWarning.Render(iconWarning), m.Skipped))

	if len(m.Recent) > 0 {
		b.WriteString(m.recentTable())
		b.WriteString("\n")
	}
	return b.String()
}

func (m BatchModel) recentTable() string {
	rows := make([][]string, len(m.Recent))
	for i, o := range m.Recent {
		msg := fmt.Sprintf("%d files", len(o.Files))
		if o.Err != nil {
			msg = o.Err.Error()
		}
		rows[i] = []string{fmt.Sprint(o.Item.Index + 1), o.Item.Stem, string(o.Status), msg}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Stem", "Status", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(m.Recent) || col != 2 {
				return lipgloss.NewStyle()
			}
			switch m.Recent[row].Status {
			case batch.StatusSucceeded:
				return StyleSuccess
			case batch.StatusFailed:
				return styleIconError
			default:
				return StyleWarning
			}
		}).
		Render()
}

// =============================================================================
// Helpers
// =============================================================================

func progressBar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	return barDoneStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}
