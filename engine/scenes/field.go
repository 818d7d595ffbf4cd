package scenes

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/events"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/engine/tilemap"
	"github.com/nathoo/sparksaga/ui"
)

// Field walks the player around the map, fires tile events on Confirm and
// runs the conversation overlay.
type Field struct {
	env *Env
	log *zap.Logger

	Map    *tilemap.Map
	Player *tilemap.Player

	choice int
	failed bool
}

func NewField(env *Env) *Field {
	return &Field{env: env, log: env.logger("field")}
}

func (s *Field) Enter(params any) error {
	p, _ := params.(FieldParams)
	s.failed = false
	if s.Map == nil || p.NewGame {
		if err := s.load(); err != nil {
			s.failed = true
			s.env.UI.Log("The map could not be loaded.")
			return err
		}
	}
	s.env.State.Region = s.Map.Region()

	if p.Outcome != NoBattle {
		if err := s.env.Dialogue.ResolveBattle(p.Outcome == BattleWon); err != nil {
			s.log.Warn("battle result dropped", zap.Error(err))
		}
	}
	s.choice = 0
	s.env.UI.Show(ui.FieldScene, true)
	return nil
}

func (s *Field) load() error {
	m, err := tilemap.Load(s.env.Maps, s.env.MapName)
	if err != nil {
		return fmt.Errorf("field map %s: %w", s.env.MapName, err)
	}
	s.Map = m
	x, y := m.PlayerStart()
	s.Player = tilemap.NewPlayer(x, y)
	if s.env.PlayerSpeed > 0 {
		s.Player.Speed = s.env.PlayerSpeed
	}
	s.log.Info("map loaded", zap.String("map", s.env.MapName), zap.String("region", m.Region()))
	return nil
}

func (s *Field) Exit() {
	s.env.UI.Show(ui.FieldScene, false)
	s.hideConversation()
}

// Pause drops held movement so the player does not drift once the
// overlay closes.
func (s *Field) Pause() { s.env.Input.ReleaseAll() }

func (s *Field) Resume() {}

func (s *Field) Update(dt float64) error {
	if s.failed {
		s.env.change(scene.Title, TitleParams{Message: "The map could not be loaded."})
		return nil
	}
	dlg := s.env.Dialogue
	if dlg.Active() {
		s.converse()
		return nil
	}

	dx, dy := s.env.Input.Direction()
	s.Player.Move(s.Map, dx, dy, dt)

	if s.env.pressed(scene.Confirm) {
		id := s.Map.EventAt(s.Player.Center())
		if id == 0 {
			return nil
		}
		if s.env.Events.Trigger(id) == events.Conversation {
			s.choice = 0
		}
	}
	return nil
}

// converse feeds input to the active conversation and hands a pending
// battle to the battle scene.
func (s *Field) converse() {
	dlg := s.env.Dialogue
	if id, ok := dlg.PendingBattle(); ok {
		s.env.change(scene.Battle, BattleParams{EncounterID: id, FromConversation: true})
		return
	}
	if choices, ok := dlg.Choices(); ok {
		s.choice = s.env.cursor(s.choice, len(choices))
		if s.env.pressed(scene.Confirm) {
			if err := dlg.Choose(s.choice); err != nil {
				s.log.Warn("choice rejected", zap.Error(err))
			}
			s.choice = 0
		}
		return
	}
	if s.env.pressed(scene.Confirm) {
		dlg.Next()
	}
}

func (s *Field) Render() {
	if s.Map == nil {
		return
	}
	s.env.UI.SetText(ui.Header, fmt.Sprintf("Region: %s | Gold %d | EXP %d", s.Map.Region(), s.env.State.Gold, s.env.State.Experience))
	s.env.UI.Show(ui.Header, true)
	s.env.UI.SetText(ui.FieldScene, s.Grid()...)
	s.renderConversation()
	s.env.showHelp()
}

// Grid draws the map as text: # wall, ! event, @ player, . floor.
func (s *Field) Grid() []string {
	m := s.Map
	px, py := s.Player.Tile(m)
	rows := make([]string, m.Height)
	var sb strings.Builder
	for ty := range m.Height {
		sb.Reset()
		for tx := range m.Width {
			x := float64(tx*m.TileWidth) + 0.5
			y := float64(ty*m.TileHeight) + 0.5
			switch {
			case tx == px && ty == py:
				sb.WriteByte('@')
			case m.IsObstacle(x, y):
				sb.WriteByte('#')
			case m.EventAt(x, y) != 0:
				sb.WriteByte('!')
			default:
				sb.WriteByte('.')
			}
		}
		rows[ty] = sb.String()
	}
	return rows
}

func (s *Field) renderConversation() {
	dlg := s.env.Dialogue
	if !dlg.Active() {
		s.hideConversation()
		return
	}
	s.env.UI.Show(ui.ConversationOverlay, true)
	s.env.UI.Show(ui.DialogBox, true)
	if d, ok := dlg.Dialog(); ok {
		s.env.UI.SetText(ui.DialogText, s.env.text(d.Text))
		s.env.UI.Clear(ui.ChoiceList)
		s.env.UI.Show(ui.ChoiceList, false)
		return
	}
	if choices, ok := dlg.Choices(); ok {
		items := make([]string, len(choices))
		for i, c := range choices {
			items[i] = s.env.text(c.Text)
		}
		s.env.UI.Clear(ui.DialogText)
		s.env.UI.SetList(ui.ChoiceList, items, s.choice)
		s.env.UI.Show(ui.ChoiceList, true)
	}
}

func (s *Field) hideConversation() {
	s.env.UI.Show(ui.ConversationOverlay, false)
	s.env.UI.Show(ui.DialogBox, false)
	s.env.UI.Show(ui.ChoiceList, false)
}
