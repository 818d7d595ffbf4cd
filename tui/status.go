package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/sparksaga/ui"
)

// sceneDisplayName derives a human-readable name from a scene name.
// "field" -> "Field".
func sceneDisplayName(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// renderStatusBar produces a full-width inverted status line showing the
// header region, the active party and the current scene.
func (m Model) renderStatusBar() string {
	e := m.engine
	left := " " + strings.Join(m.board.Text(ui.Header), " ")
	scene := sceneDisplayName(e.Scenes.Current())
	right := fmt.Sprintf("%s ", scene)

	// Show the party and item count if they fit.
	if p, ok := e.State.ActiveParty(); ok {
		candidate := fmt.Sprintf("%s | Items: %d | %s ", p.Name, len(e.State.Inventory()), scene)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
