package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/chartsnap/pkg/batch"
)

func outcome(i int, status batch.Status) batch.Outcome {
	o := batch.Outcome{Item: batch.Item{Index: i, Stem: "bar-" + string(rune('a'+i))}, Status: status}
	if status != batch.StatusSucceeded {
		o.Err = errors.New("prefetch failed")
	}
	return o
}

func TestBatchModelCountsOutcomes(t *testing.T) {
	var m tea.Model = NewBatchModel(12, nil)
	statuses := []batch.Status{batch.StatusSucceeded, batch.StatusFailed, batch.StatusSkipped}
	for i := 0; i < 12; i++ {
		m, _ = m.Update(progressMsg{Done: i + 1, Total: 12, Outcome: outcome(i, statuses[i%3])})
	}

	bm := m.(BatchModel)
	if bm.Done != 12 || bm.Succeeded != 4 || bm.Failed != 4 || bm.Skipped != 4 {
		t.Errorf("counts = %d/%d/%d/%d", bm.Done, bm.Succeeded, bm.Failed, bm.Skipped)
	}
	if len(bm.Recent) != recentRows || bm.Recent[len(bm.Recent)-1].Item.Index != 11 {
		t.Errorf("recent window = %d items", len(bm.Recent))
	}
	if view := bm.View(); !strings.Contains(view, "12/12") || !strings.Contains(view, "prefetch failed") {
		t.Errorf("view missing progress or errors:\n%s", view)
	}
}

func TestBatchModelQuitCancels(t *testing.T) {
	cancelled := 0
	var m tea.Model = NewBatchModel(3, func() { cancelled++ })

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("quitting should wait for the run to finish")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cancelled != 1 {
		t.Errorf("cancel called %d times, want 1", cancelled)
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Error("view should show that the run is stopping")
	}

	report := &batch.Report{Total: 3, Succeeded: 1}
	m, cmd = m.Update(batchDoneMsg{report: report})
	if cmd == nil {
		t.Fatal("done message should quit the program")
	}
	if m.(BatchModel).Report != report {
		t.Error("report not kept")
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		full        int
	}{
		{0, 10, 0},
		{5, 10, 10},
		{10, 10, 20},
		{3, 0, 0},
	}
	for _, tt := range tests {
		bar := progressBar(tt.done, tt.total, 20)
		if got := strings.Count(bar, "█"); got != tt.full {
			t.Errorf("progressBar(%d, %d) has %d full cells, want %d", tt.done, tt.total, got, tt.full)
		}
	}
}
