package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okian/eegscope/internal/domain/model"
	"github.com/okian/eegscope/internal/driver"
)

func frameOf(states ...string) driver.Frame {
	samples := make([]model.Sample, len(states))
	for i, st := range states {
		samples[i] = model.Sample{
			Seconds:    int64(10 + i),
			RMS:        float64(i) + 1,
			Attention:  0.5,
			AlphaPower: 1, ThetaPower: 2, DeltaPower: 3, BetaPower: float64(i),
			State: st,
		}
	}
	f := driver.Frame{
		Samples:  samples,
		Columns:  model.ColumnsOf(samples),
		Capacity: 60,
		Stats:    driver.Stats{Ticks: 7, Appended: int64(len(samples))},
	}
	if len(samples) > 0 {
		f.Latest = samples[len(samples)-1]
		f.HasLatest = true
	}
	return f
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelWaitsForData(t *testing.T) {
	view := NewModel().View()
	if !strings.Contains(view, "Brain State: waiting for data...") {
		t.Errorf("expected waiting header, got:\n%s", view)
	}
	for _, title := range []string{"RMS", "Attention", "Band Power"} {
		if !strings.Contains(view, title) {
			t.Errorf("expected panel %q in view", title)
		}
	}
}

func TestFrameUpdatesHeaderAndPanels(t *testing.T) {
	m := update(NewModel(), frameMsg{frame: frameOf("Relaxed", "Focused")})
	view := m.View()

	if !strings.Contains(view, "Brain State: Focused") {
		t.Errorf("expected latest state in header, got:\n%s", view)
	}
	if !strings.Contains(view, "10s") || !strings.Contains(view, "11s") {
		t.Error("expected time axis from first to last second")
	}
	for _, name := range []string{"alpha", "theta", "delta", "beta"} {
		if !strings.Contains(view, name) {
			t.Errorf("expected legend entry %q", name)
		}
	}
	if !strings.Contains(view, "window 2/60") {
		t.Error("expected window counter in footer")
	}
}

func TestRenderingIsIdempotent(t *testing.T) {
	f := frameOf("Relaxed", "Relaxed", "Moving")
	once := update(NewModel(), frameMsg{frame: f})
	twice := update(once, frameMsg{frame: f})
	if once.View() != twice.View() {
		t.Error("expected equal frames to render identically")
	}
}

func TestPauseFreezesView(t *testing.T) {
	m := update(NewModel(), frameMsg{frame: frameOf("Relaxed")})
	m = update(m, keyPress("p"))
	if !m.paused {
		t.Fatal("expected p to pause")
	}

	m = update(m, frameMsg{frame: frameOf("Relaxed", "Moving")})
	view := m.View()
	if !strings.Contains(view, "Brain State: Relaxed") || !strings.Contains(view, "[paused]") {
		t.Errorf("expected frozen frame while paused, got:\n%s", view)
	}

	m = update(m, keyPress("p"))
	if !strings.Contains(m.View(), "Brain State: Moving") {
		t.Error("expected newest frame after resuming")
	}
}

func TestQuitKey(t *testing.T) {
	_, cmd := NewModel().Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestWindowSizeIsTracked(t *testing.T) {
	m := update(NewModel(), tea.WindowSizeMsg{Width: 120, Height: 50})
	if m.width != 120 || m.height != 50 {
		t.Errorf("expected 120x50, got %dx%d", m.width, m.height)
	}
}

func TestFooterShowsLastError(t *testing.T) {
	f := frameOf("Relaxed")
	f.LastError = errors.New("line shape mismatch")
	view := update(NewModel(), frameMsg{frame: f}).View()
	if !strings.Contains(view, "last error: line shape mismatch") {
		t.Errorf("expected last error in footer, got:\n%s", view)
	}
}
