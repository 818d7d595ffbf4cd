package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/sparksaga/data"
	"github.com/nathoo/sparksaga/engine"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/ui"
)

var t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func newModel(t *testing.T) (Model, *engine.Engine) {
	t.Helper()
	store, logs := loader.Load(context.Background(), loader.FSSource{FS: data.FS}, loader.Options{})
	if err := logs.Err(); err != nil {
		t.Fatalf("load content: %v", err)
	}
	board := ui.NewBoard(nil)
	eng := engine.New(store, engine.Options{Maps: data.FS, MapName: "maps/tutorial.json", Surface: board, Seed: 1})
	if err := eng.Start(scene.Title, t0); err != nil {
		t.Fatalf("start: %v", err)
	}
	m := New(eng, board, 30, nil)
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return mm.(Model), eng
}

func update(m Model, msg tea.Msg) Model {
	mm, _ := m.Update(msg)
	return mm.(Model)
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"Grey Wolf Pack appears!", kindBattle},
		{"Victory!", kindBattle},
		{"The party has fallen.", kindBattle},
		{"The party escaped!", kindBattle},
		{"Grey Wolf A uses Venom Fang on Mage for 18 damage.", kindDamage},
		{"Grey Wolf B is defeated.", kindDamage},
		{"Obtained Potion x1.", kindGain},
		{"Hero recovers 30 HP.", kindGain},
		{"Formation set to Crane Wing.", kindGain},
		{"Old chest does not respond yet.", kindWarn},
		{"The encounter could not begin.", kindWarn},
		{"Not enough points.", kindWarn},
		{"You open the chest.", kindPlain},
		{"", kindPlain},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"Grey Wolf A uses Venom Fang on Mage for 18 damage.", 30,
			"Grey Wolf A uses Venom Fang on\nMage for 18 damage."},
		{"", 80, ""},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestKeyMap_Actions(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want scene.Action
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, scene.MoveUp},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}, scene.MoveDown},
		{tea.KeyMsg{Type: tea.KeyLeft}, scene.MoveLeft},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}, scene.MoveRight},
		{tea.KeyMsg{Type: tea.KeyEnter}, scene.Confirm},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, scene.Confirm},
		{tea.KeyMsg{Type: tea.KeyEsc}, scene.Cancel},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}}, scene.Menu},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, scene.TargetPrev},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}}, scene.TargetNext},
	}
	keys := defaultKeyMap()
	for _, tt := range tests {
		got, ok := keys.action(tt.msg)
		if !ok || got != tt.want {
			t.Errorf("action(%q) = %v, %v; want %v", tt.msg.String(), got, ok, tt.want)
		}
	}
	if _, ok := keys.action(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}); ok {
		t.Error("x should not map to an action")
	}
}

func TestHoldFrames(t *testing.T) {
	if got := holdFrames(scene.MoveLeft); got != moveHoldFrames {
		t.Errorf("movement hold = %d, want %d", got, moveHoldFrames)
	}
	if got := holdFrames(scene.Confirm); got != 0 {
		t.Errorf("confirm hold = %d, want 0", got)
	}
}

func TestModel_KeysDriveFrames(t *testing.T) {
	m, eng := newModel(t)
	frame := time.Second / 30

	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(m, frameMsg(t0.Add(frame)))
	if got := eng.Scenes.Current(); got != scene.Field {
		t.Fatalf("scene = %q, want field", got)
	}

	startX := eng.Screens.Field.Player.X
	m = update(m, tea.KeyMsg{Type: tea.KeyRight})
	for i := 2; i <= 1+moveHoldFrames+2; i++ {
		m = update(m, frameMsg(t0.Add(time.Duration(i)*frame)))
	}
	want := startX + 100*float64(moveHoldFrames)*frame.Seconds()
	if got := eng.Screens.Field.Player.X; got < want-0.01 || got > want+0.01 {
		t.Errorf("player x = %v, want %v after one held press", got, want)
	}

	view := m.View()
	for _, s := range []string{"Region: tutorial", "@", "Field", "KB: Arrows/WASD"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q", s)
		}
	}
}

func TestModel_LogReachesViewport(t *testing.T) {
	m, eng := newModel(t)
	eng.UI.Log("Obtained Potion x1.")
	m = update(m, frameMsg(t0.Add(time.Second/30)))
	if !strings.Contains(m.viewport.View(), "Obtained Potion x1.") {
		t.Error("log line not in viewport")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t)
	mm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if mm.(Model).View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestLayout_MarksSelection(t *testing.T) {
	b := ui.NewBoard(nil)
	b.SetList(ui.Footer, []string{"Formation", "Close"}, 1)
	b.Show(ui.Footer, true)
	b.SetText(ui.Main, "hidden text")

	out := layout(b)
	if !strings.Contains(out, "> Close") || !strings.Contains(out, "  Formation") {
		t.Errorf("selection not marked:\n%s", out)
	}
	if strings.Contains(out, "hidden text") {
		t.Error("hidden region drawn")
	}
}

func TestSceneDisplayName(t *testing.T) {
	if got := sceneDisplayName("battle"); got != "Battle" {
		t.Errorf("sceneDisplayName = %q", got)
	}
	if got := sceneDisplayName(""); got != "" {
		t.Errorf("empty name = %q", got)
	}
}
