package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleRegion = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	styleSelected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	stylePlain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleBattle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("209")).
			Bold(true)

	styleDamage = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleGain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleWarn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleWall   = lipgloss.NewStyle().Foreground(lipgloss.Color("94"))
	styleFloor  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleEvent  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	stylePlayer = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
)

// lineKind identifies the type of a log line for styling.
type lineKind int

const (
	kindPlain lineKind = iota
	kindBattle
	kindDamage
	kindGain
	kindWarn
)

// classifyLine determines what kind of log line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasSuffix(line, "does not respond yet."),
		strings.Contains(line, "could not"),
		strings.HasPrefix(line, "Not enough"):
		return kindWarn
	case strings.HasSuffix(line, "appears!"),
		strings.HasPrefix(line, "Victory"),
		strings.HasSuffix(line, "has fallen."),
		strings.HasSuffix(line, "escaped!"):
		return kindBattle
	case strings.Contains(line, " damage"),
		strings.HasSuffix(line, "is defeated."):
		return kindDamage
	case strings.HasPrefix(line, "Obtained"),
		strings.HasPrefix(line, "Formation set"),
		strings.Contains(line, " recovers "):
		return kindGain
	default:
		return kindPlain
	}
}

func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindBattle:
		return styleBattle.Render(line)
	case kindDamage:
		return styleDamage.Render(line)
	case kindGain:
		return styleGain.Render(line)
	case kindWarn:
		return styleWarn.Render(line)
	default:
		return stylePlain.Render(line)
	}
}

// colorGlyphs paints one row of the field map.
func colorGlyphs(row string) string {
	var sb strings.Builder
	for _, r := range row {
		s := string(r)
		switch r {
		case '#':
			sb.WriteString(styleWall.Render(s))
		case '@':
			sb.WriteString(stylePlayer.Render(s))
		case '!':
			sb.WriteString(styleEvent.Render(s))
		default:
			sb.WriteString(styleFloor.Render(s))
		}
	}
	return sb.String()
}
