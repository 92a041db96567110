package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okian/eegscope/internal/driver"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	waitingText   = "waiting for data..."
)

type frameMsg struct {
	frame driver.Frame
}

// Model is the bubbletea model for the live plot.
type Model struct {
	shown   driver.Frame // frame currently drawn
	pending driver.Frame // newest frame received, drawn once unpaused
	paused  bool

	width  int
	height int

	keys keyMap
	help help.Model
}

// NewModel creates an empty plot model.
func NewModel() Model {
	return Model{
		width:  defaultWidth,
		height: defaultHeight,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.pending = msg.frame
		if !m.paused {
			m.shown = msg.frame
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if !m.paused {
				m.shown = m.pending
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	// Each panel spends two rows on borders, one on its title, one on the
	// time axis and one on its stats line.
	const panelChrome = 5
	free := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	chartH := max(minChartHeight, free/3-panelChrome)
	w := max(40, m.width)

	cols := m.shown.Columns
	panels := []string{
		m.seriesPanel("RMS", cols.RMS, RMSStyle, w, chartH),
		m.seriesPanel("Attention", cols.Attention, AttentionStyle, w, chartH),
		m.bandPanel(w, chartH),
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(panels, "\n"), footer)
}

func (m Model) renderHeader() string {
	state := waitingText
	if m.shown.HasLatest {
		state = m.shown.Latest.State
	}
	title := TitleStyle.Render("Brain State: " + state)
	if m.paused {
		title += "  " + PausedStyle.Render("[paused]")
	}
	return title
}

func panelInnerWidth(total int) int {
	// Account for rounded border (2 cols) + horizontal padding (2 cols).
	return max(minChartWidth, total-4)
}

func chartWidth(total int) int {
	return max(minChartWidth, panelInnerWidth(total)-axisLabelWidth-2)
}

func panel(title string, lines []string, w int) string {
	return PanelStyle.Width(panelInnerWidth(w)).Render(PanelTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

func (m Model) axis(w int) string {
	cols := m.shown.Columns
	if cols.Len() == 0 {
		return ""
	}
	return DimStyle.Render(timeAxis(cols.Seconds[0], cols.Seconds[cols.Len()-1], chartWidth(w)))
}

func (m Model) seriesPanel(title string, series []float64, st lipgloss.Style, w, h int) string {
	lines := lineChart(m.shown.Columns.Seconds, [][]float64{series}, []lipgloss.Style{st}, chartWidth(w), h)
	lines = append(lines, m.axis(w))
	if latest, lo, hi, ok := seriesStats(series); ok {
		sub := fmt.Sprintf("latest %.2f | min %.2f | max %.2f | n=%d", latest, lo, hi, len(series))
		lines = append(lines, DimStyle.Render(sub))
	} else {
		lines = append(lines, DimStyle.Render(waitingText))
	}
	return panel(title, lines, w)
}

func (m Model) bandPanel(w, h int) string {
	cols := m.shown.Columns
	series := [][]float64{cols.Alpha, cols.Theta, cols.Delta, cols.Beta}
	styles := make([]lipgloss.Style, len(bands))
	legend := make([]string, len(bands))
	for i, b := range bands {
		styles[i] = b.style
		label := b.name
		if n := len(series[i]); n > 0 {
			label = fmt.Sprintf("%s %.2f", b.name, series[i][n-1])
		}
		legend[i] = b.style.Render("● " + label)
	}

	lines := lineChart(cols.Seconds, series, styles, chartWidth(w), h)
	lines = append(lines, m.axis(w), strings.Join(legend, "  "))
	return panel("Band Power", lines, w)
}

func (m Model) renderFooter() string {
	st := m.shown.Stats
	counters := fmt.Sprintf("window %d/%d  ticks %d  appended %d  rejected %d",
		len(m.shown.Samples), m.shown.Capacity, st.Ticks, st.Appended, st.ParseFailures)
	lines := []string{DimStyle.Render(counters)}
	if m.shown.LastError != nil {
		lines = append(lines, ErrorTextStyle.Render("last error: "+m.shown.LastError.Error()))
	}
	lines = append(lines, m.help.View(m.keys))
	return strings.Join(lines, "\n")
}
