package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/sparksaga/engine/scene"
)

// moveHoldFrames is how long a movement key stays down. A terminal sends
// no key release, so a press is held across roughly one key-repeat
// interval and repeats keep the player walking.
const moveHoldFrames = 5

type binding struct {
	action scene.Action
	key    key.Binding
}

type keyMap struct {
	actions  []binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		actions: []binding{
			{scene.MoveUp, key.NewBinding(key.WithKeys("up", "w"), key.WithHelp("↑/w", "up"))},
			{scene.MoveDown, key.NewBinding(key.WithKeys("down", "s"), key.WithHelp("↓/s", "down"))},
			{scene.MoveLeft, key.NewBinding(key.WithKeys("left", "a"), key.WithHelp("←/a", "left"))},
			{scene.MoveRight, key.NewBinding(key.WithKeys("right", "d"), key.WithHelp("→/d", "right"))},
			{scene.Confirm, key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "confirm"))},
			{scene.Cancel, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))},
			{scene.Menu, key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu"))},
			{scene.TargetPrev, key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "prev target"))},
			{scene.TargetNext, key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "next target"))},
		},
		Quit:     key.NewBinding(key.WithKeys("ctrl+c")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}
}

// action maps a key press to a game action.
func (k keyMap) action(msg tea.KeyMsg) (scene.Action, bool) {
	for _, b := range k.actions {
		if key.Matches(msg, b.key) {
			return b.action, true
		}
	}
	return 0, false
}

func holdFrames(a scene.Action) int {
	switch a {
	case scene.MoveUp, scene.MoveDown, scene.MoveLeft, scene.MoveRight:
		return moveHoldFrames
	}
	return 0
}

// viewportKeyMap leaves only paging on the log; arrows belong to the game.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithDisabled()),
		HalfPageUp:   key.NewBinding(key.WithDisabled()),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
