package scenes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/sparksaga/data"
	"github.com/nathoo/sparksaga/engine/dialogue"
	"github.com/nathoo/sparksaga/engine/events"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/ui"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type rig struct {
	t     *testing.T
	env   *Env
	set   *Set
	board *ui.Board
	now   time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()
	store, logs := loader.Load(context.Background(), loader.FSSource{FS: data.FS}, loader.Options{})
	require.NoError(t, logs.Err())

	board := ui.NewBoard(nil)
	gs := state.New(store)
	input := scene.NewInput()
	dlg := dialogue.New(store, gs, nil)
	env := &Env{
		Store:    store,
		State:    gs,
		Rand:     fixedRand(0.5),
		Input:    input,
		UI:       board,
		Scenes:   scene.New(input, nil),
		Dialogue: dlg,
		Events:   events.New(store, gs, dlg, board, nil),
		Maps:     data.FS,
		MapName:  "maps/tutorial.json",
		Locale:   "en",
	}
	r := &rig{t: t, env: env, set: Register(env), board: board, now: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	return r
}

func (r *rig) start(name string, params any) {
	r.t.Helper()
	require.NoError(r.t, r.env.Scenes.Start(name, params, r.now))
}

func (r *rig) press(actions ...scene.Action) {
	r.t.Helper()
	for _, a := range actions {
		r.env.Input.Tap(a, 0)
	}
	r.now = r.now.Add(time.Second / 30)
	require.NoError(r.t, r.env.Scenes.Tick(r.now))
}

func TestTitle_ShowsMessageAndStartsNewGame(t *testing.T) {
	r := newRig(t)
	r.env.State.Gold = 50
	r.env.State.SetFlag("met_elder", true)
	r.start(scene.Title, TitleParams{Message: "The party has fallen."})

	r.press()
	assert.Contains(t, r.board.Text(ui.Main), "The party has fallen.")

	r.press(scene.Confirm)
	assert.Equal(t, scene.Field, r.env.Scenes.Current())
	assert.Zero(t, r.env.State.Gold)
	assert.False(t, r.env.State.Flag("met_elder"))
	assert.False(t, r.board.Visible(ui.Main))
}

func TestBattle_PlainDefeatGoesToTitle(t *testing.T) {
	r := newRig(t)
	r.start(scene.Battle, BattleParams{EncounterID: "tutorial_wolf_pack"})

	fight := r.set.Battle.Fight
	require.NotNil(t, fight)
	actor := fight.Current()
	require.NotNil(t, actor)
	for _, c := range fight.Allies {
		if c != actor {
			c.HP = 0
		}
	}
	actor.HP, actor.LP = 1, 0

	// Attack the first enemy; the counterattack finishes the party.
	r.press(scene.Confirm)
	r.press(scene.Confirm)
	require.True(t, fight.Over())

	r.press()
	assert.Equal(t, scene.Title, r.env.Scenes.Current())
	assert.Contains(t, r.board.Text(ui.Main), "The party has fallen.")
	assert.False(t, r.board.Visible(ui.BattleScene))
}

func TestBattle_UnknownEncounterReturnsToField(t *testing.T) {
	r := newRig(t)
	r.start(scene.Battle, BattleParams{EncounterID: "nowhere"})
	assert.Nil(t, r.set.Battle.Fight)

	r.press()
	assert.Equal(t, scene.Field, r.env.Scenes.Current())
	assert.Contains(t, r.board.Text(ui.LogPane), "The encounter could not begin.")
}

func TestBattle_CommandMenuEndsWithEscape(t *testing.T) {
	r := newRig(t)
	r.start(scene.Battle, BattleParams{EncounterID: "tutorial_wolf_pack"})
	r.press()

	reg, ok := r.board.Region(ui.CommandMenu)
	require.True(t, ok)
	require.NotEmpty(t, reg.Lines)
	assert.Equal(t, escapeLabel, reg.Lines[len(reg.Lines)-1])
	assert.True(t, r.board.Visible(ui.CommandMenu))
	assert.Len(t, r.board.Text(ui.EnemyStatus), 2)
}

func TestBattle_AnnouncesEncounterOnce(t *testing.T) {
	r := newRig(t)
	r.start(scene.Battle, BattleParams{EncounterID: "tutorial_wolf_pack"})

	n := 0
	for _, l := range r.board.Text(ui.LogPane) {
		if l == "Wolf Pack appears!" {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestResult_WithoutOutcomeReturnsToField(t *testing.T) {
	r := newRig(t)
	r.start(scene.Result, ResultParams{})
	assert.False(t, r.board.Visible(ui.ResultScene))

	r.press()
	assert.Equal(t, scene.Field, r.env.Scenes.Current())
}

func TestHelp_FollowsDevice(t *testing.T) {
	r := newRig(t)
	r.start(scene.Title, nil)

	r.press()
	assert.Equal(t, []string{"KB: Arrows/WASD, Enter/Space, Esc, M, Q/E"}, r.board.Text(ui.HelpDisplay))
	assert.False(t, r.board.Visible(ui.TouchControls))

	r.env.Input.SetDevice(scene.Touch)
	r.press()
	assert.Equal(t, []string{"Touch: D-Pad, A, B, M"}, r.board.Text(ui.HelpDisplay))
	assert.True(t, r.board.Visible(ui.TouchControls))

	r.env.Input.SetDevice(scene.Gamepad)
	r.press()
	assert.Equal(t, []string{"Pad: D-Pad, A, B, Start"}, r.board.Text(ui.HelpDisplay))
}

func TestCursor_Wraps(t *testing.T) {
	r := newRig(t)
	r.env.Input.Tap(scene.MoveUp, 0)
	assert.Equal(t, 2, r.env.cursor(0, 3))
	r.env.Input.EndFrame()

	r.env.Input.Tap(scene.MoveDown, 0)
	assert.Equal(t, 0, r.env.cursor(2, 3))
	assert.Zero(t, r.env.cursor(5, 0))
}
