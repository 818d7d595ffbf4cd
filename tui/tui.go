// Package tui hosts the game in a terminal with Bubble Tea: a timer
// drives engine frames, keys become actions and the board's regions are
// laid out with lipgloss.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/ui"
)

// logHeight is the number of log lines on screen.
const logHeight = 6

// Model is the Bubble Tea model for the Spark Saga TUI.
type Model struct {
	engine *engine.Engine
	board  *ui.Board
	keys   keyMap
	frame  time.Duration
	log    *zap.Logger

	viewport viewport.Model
	content  string

	width    int
	height   int
	ready    bool
	quitting bool
}

// frameMsg asks for one engine frame at the given time.
type frameMsg time.Time

// New creates a TUI model over a started engine drawing on board.
// tickRate is frames per second.
func New(eng *engine.Engine, board *ui.Board, tickRate int, logger *zap.Logger) Model {
	if tickRate <= 0 {
		tickRate = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		engine: eng,
		board:  board,
		keys:   defaultKeyMap(),
		frame:  time.Second / time.Duration(tickRate),
		log:    logger.Named("tui"),
	}
}

// Run starts the Bubble Tea program and blocks until the player quits.
func Run(eng *engine.Engine, board *ui.Board, tickRate int, logger *zap.Logger) error {
	m := New(eng, board, tickRate, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.nextFrame()
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Update handles key presses, window resizes and frame ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.width, logHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
		}
		m.content = ""
		m.refreshViewport()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if a, ok := m.keys.action(msg); ok {
			in := m.engine.Input
			in.SetDevice(scene.Keyboard)
			in.Tap(a, holdFrames(a))
		}

	case frameMsg:
		if err := m.engine.Tick(time.Time(msg)); err != nil {
			m.log.Error("frame failed", zap.Error(err))
		}
		m.refreshViewport()
		return m, m.nextFrame()
	}
	return m, nil
}

// refreshViewport re-wraps and re-styles the log pane when it changed and
// scrolls to the newest line.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	lines := m.board.Text(ui.LogPane)
	raw := strings.Join(lines, "\n")
	if raw == m.content {
		return
	}
	m.content = raw

	width := max(m.width, 10)
	styled := make([]string, 0, len(lines))
	for _, line := range lines {
		styled = append(styled, renderLineKind(wordWrap(line, width), classifyLine(line)))
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders status bar, regions, log and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	help := strings.Join(m.board.Text(ui.HelpDisplay), " ")
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusBar(),
		layout(m.board),
		m.viewport.View(),
		styleHelp.Render(help+" | PgUp/PgDn log | Ctrl+C quit"),
	)
}

// panelRows groups body regions; regions in one row sit side by side.
// Container regions carry no lines of their own and never draw.
var panelRows = [][]string{
	{ui.Main},
	{ui.FieldScene},
	{ui.DialogText, ui.ChoiceList},
	{ui.EnemyStatus, ui.PlayerStatus},
	{ui.CommandMenu, ui.SkillMenu, ui.TargetMenu, ui.BattleLog},
	{ui.ResultScene},
	{ui.ExpGained, ui.GoldGained, ui.LootList, ui.QuestProgressList},
	{ui.Footer},
}

// layout draws every visible region with content.
func layout(b *ui.Board) string {
	var rows []string
	for _, ids := range panelRows {
		var boxes []string
		for _, id := range ids {
			r, ok := b.Region(id)
			if !ok || r.Hidden || len(r.Lines) == 0 {
				continue
			}
			boxes = append(boxes, panel(r))
		}
		if len(boxes) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func panel(r ui.Region) string {
	lines := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		switch {
		case r.ID == ui.FieldScene:
			lines[i] = colorGlyphs(l)
		case r.Selected >= 0 && i == r.Selected:
			lines[i] = styleSelected.Render("> " + l)
		case r.Selected >= 0:
			lines[i] = "  " + l
		default:
			lines[i] = l
		}
	}
	return styleRegion.Render(strings.Join(lines, "\n"))
}
