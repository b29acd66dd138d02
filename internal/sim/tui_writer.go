package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// plotsMsg replaces the economics table.
type plotsMsg struct{ rows []telemetry.PlotRow }

// tickMsg carries the latest tick summary.
type tickMsg struct{ telemetry.TickRow }

const maxLogLines = 1000

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUIWriter renders readings and plot economics using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
// Quitting the TUI interrupts the process so the simulator shuts down too.
func NewTUIWriter(cfg *config.Config) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteReading implements ReadingWriter.
func (w *TUIWriter) WriteReading(row telemetry.ReadingRow) error {
	kColor, ok := kindColors[row.Kind]
	if !ok {
		kColor = colorMagenta
	}
	line := fmt.Sprintf("%s[%s]%s %splot=%d%s %s%s%s %s%-14s%s %s%.2f %s%s",
		colorGray, row.Timestamp.Local().Format(time.TimeOnly), colorReset,
		colorBlue, row.PlotID, colorReset,
		kColor, row.SensorCode, colorReset,
		kColor, row.Kind, colorReset,
		colorCyan, row.Value, row.Unit, colorReset,
	)
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteReadings outputs multiple reading rows.
func (w *TUIWriter) WriteReadings(rows []telemetry.ReadingRow) error {
	for _, r := range rows {
		_ = w.WriteReading(r)
	}
	return nil
}

// WritePlots implements PlotWriter.
func (w *TUIWriter) WritePlots(rows []telemetry.PlotRow) error {
	w.program.Send(plotsMsg{rows: rows})
	return nil
}

// WriteTick implements TickWriter.
func (w *TUIWriter) WriteTick(row telemetry.TickRow) error {
	w.program.Send(tickMsg{row})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.Config
	table        table.Model
	vp           viewport.Model
	logs         []string
	last         telemetry.TickRow
	failures     int
	wrap         bool
	autoscroll   bool
	header       string
	headerHeight int
	height       int
}

func newTUIModel(cfg *config.Config) tuiModel {
	cols := []table.Column{
		{Title: "Plot", Width: 16},
		{Title: "State", Width: 8},
		{Title: "Prod (kg)", Width: 10},
		{Title: "Cost (€)", Width: 10},
		{Title: "Revenue (€)", Width: 12},
		{Title: "Balance (€)", Width: 12},
	}
	var rows []table.Row
	if cfg != nil {
		for _, p := range cfg.Farm.Plots {
			rows = append(rows, table.Row{p.Name, p.State, "-", "-", "-", "-"})
		}
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	m := tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case plotsMsg:
		rows := make([]table.Row, 0, len(msg.rows))
		for _, p := range msg.rows {
			rows = append(rows, table.Row{
				p.Name,
				string(p.State),
				fmt.Sprintf("%.2f", p.ProductionKg),
				fmt.Sprintf("%.2f", p.CostEUR),
				fmt.Sprintf("%.2f", p.RevenueEUR),
				fmt.Sprintf("%.2f", p.RevenueEUR-p.CostEUR),
			})
		}
		m.table.SetRows(rows)
		m.table.SetHeight(len(rows) + 1)
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
	case tickMsg:
		m.last = msg.TickRow
		if msg.Failed() {
			m.failures++
		}
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	h := m.height - m.headerHeight - bottomHeight - 2
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m tuiModel) renderHeader() string {
	title := "fieldops-sim"
	if m.cfg != nil && m.cfg.Farm.Name != "" {
		title = m.cfg.Farm.Name
	}
	return lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(title), m.table.View())
}

func (m tuiModel) renderBottom() string {
	status := dimStyle.Render("waiting for first tick")
	if m.last.TickID != "" {
		if m.last.Failed() {
			status = failStyle.Render(fmt.Sprintf("tick %s failed: %s", m.last.TickID, m.last.Error))
		} else {
			status = fmt.Sprintf("tick %s  readings=%d plots=%d took=%s at %s",
				m.last.TickID, m.last.Readings, m.last.Plots,
				m.last.Duration.Round(time.Millisecond), m.last.Timestamp.Local().Format(time.TimeOnly))
		}
	}
	flags := fmt.Sprintf("failures=%d wrap=%t autoscroll=%t", m.failures, m.wrap, m.autoscroll)
	return lipgloss.JoinVertical(lipgloss.Left, status, dimStyle.Render(flags+"  [q]uit [w]rap [s]croll"))
}
