// Package scenes holds the game's screens: title, field, battle, result
// and the menu and formation overlays.
package scenes

import (
	"io/fs"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/combat"
	"github.com/nathoo/sparksaga/engine/dialogue"
	"github.com/nathoo/sparksaga/engine/events"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/ui"
)

// Env is everything the scenes share. The engine owns one and hands the
// same pointer to every scene.
type Env struct {
	Store    *loader.Store
	State    *state.GameState
	Rand     combat.Rand
	Input    *scene.Input
	UI       ui.Surface
	Scenes   *scene.Orchestrator
	Dialogue *dialogue.Engine
	Events   *events.Manager

	// Maps holds tilemap files; MapName is the field map within it.
	Maps        fs.FS
	MapName     string
	Locale      string
	PlayerSpeed float64

	Logger *zap.Logger
}

func (e *Env) logger(name string) *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger.Named(name)
}

func (e *Env) text(key string) string { return e.Store.Text(e.Locale, key) }

func (e *Env) pressed(a scene.Action) bool { return e.Input.IsActionJustPressed(a) }

// change switches scenes and logs a refusal rather than failing the frame.
func (e *Env) change(name string, params any) {
	if err := e.Scenes.ChangeScene(name, params); err != nil {
		e.logger("scenes").Warn("scene change refused", zap.String("scene", name), zap.Error(err))
	}
}

// Set is the registered scenes, kept typed for hosts and tests.
type Set struct {
	Title     *Title
	Field     *Field
	Battle    *Battle
	Result    *Result
	Menu      *Menu
	Formation *Formation
}

// Register adds every scene to the orchestrator under its default name.
func Register(env *Env) *Set {
	set := &Set{
		Title:     NewTitle(env),
		Field:     NewField(env),
		Battle:    NewBattle(env),
		Result:    NewResult(env),
		Menu:      NewMenu(env),
		Formation: NewFormation(env),
	}
	env.Scenes.Register(scene.Title, set.Title)
	env.Scenes.Register(scene.Field, set.Field)
	env.Scenes.Register(scene.Battle, set.Battle)
	env.Scenes.Register(scene.Result, set.Result)
	env.Scenes.Register(scene.MenuScene, set.Menu)
	env.Scenes.Register(scene.Formation, set.Formation)
	return set
}

// showHelp writes the control hints for the device in use and shows the
// touch pad only for touch input.
func (e *Env) showHelp() {
	d := e.Input.Device()
	var help string
	switch d {
	case scene.Gamepad:
		help = "Pad: D-Pad, A, B, Start"
	case scene.Touch:
		help = "Touch: D-Pad, A, B, M"
	default:
		help = "KB: Arrows/WASD, Enter/Space, Esc, M, Q/E"
	}
	e.UI.SetText(ui.HelpDisplay, help)
	e.UI.Show(ui.HelpDisplay, true)
	e.UI.Show(ui.TouchControls, d == scene.Touch)
}

// cursor moves a menu selection with Up/Down, wrapping at both ends.
func (e *Env) cursor(sel, n int) int {
	if n == 0 {
		return 0
	}
	if e.pressed(scene.MoveUp) {
		sel--
	}
	if e.pressed(scene.MoveDown) {
		sel++
	}
	return (sel%n + n) % n
}

// BattleOutcome tells the field how a conversation battle ended.
type BattleOutcome int

const (
	NoBattle BattleOutcome = iota
	BattleWon
	BattleLost
)

// FieldParams are passed when entering the field.
type FieldParams struct {
	// NewGame reloads the map and puts the player back at the start.
	NewGame bool
	Outcome BattleOutcome
}

// BattleParams name the encounter to fight.
type BattleParams struct {
	EncounterID string
	// FromConversation is set when a conversation battle node started the
	// fight; the conversation resumes afterwards.
	FromConversation bool
}

// ResultParams are passed from battle to result.
type ResultParams struct {
	FromConversation bool
}

// TitleParams carry a message shown under the title, such as a defeat.
type TitleParams struct {
	Message string
}
