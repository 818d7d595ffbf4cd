package scenes

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/combat"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/ui"
)

const (
	escapeLabel = "Escape"
	// battleLogLines is how much of the log the battle panel keeps.
	battleLogLines = 6
)

// Battle runs an encounter: it routes menu input into the combat engine
// and leaves for result, field or title once the fight is decided.
type Battle struct {
	env *Env
	log *zap.Logger

	Fight  *combat.Battle
	params BattleParams

	sel     int
	menu    string
	lines   []string
	aborted bool
}

func NewBattle(env *Env) *Battle {
	return &Battle{env: env, log: env.logger("battle")}
}

func (s *Battle) Enter(params any) error {
	s.params, _ = params.(BattleParams)
	s.Fight, s.lines, s.sel, s.menu, s.aborted = nil, nil, 0, "", false

	b, err := combat.NewBattle(combat.Deps{
		Store:  s.env.Store,
		State:  s.env.State,
		Rand:   s.env.Rand,
		Logger: s.env.Logger,
	}, s.params.EncounterID)
	if err != nil {
		s.aborted = true
		s.env.UI.Log("The encounter could not begin.")
		return err
	}
	s.Fight = b
	s.env.UI.SetText(ui.Header, b.Encounter().Name)
	s.env.UI.Show(ui.Header, true)
	s.env.UI.Show(ui.BattleScene, true)
	s.env.UI.Show(ui.PlayerStatus, true)
	s.env.UI.Show(ui.EnemyStatus, true)
	s.env.UI.Show(ui.BattleLog, true)
	if err := b.Start(); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *Battle) Exit() {
	for _, id := range []string{ui.BattleScene, ui.PlayerStatus, ui.EnemyStatus, ui.CommandMenu, ui.SkillMenu, ui.TargetMenu, ui.BattleLog} {
		s.env.UI.Show(id, false)
	}
}

func (s *Battle) Pause() { s.env.Input.ReleaseAll() }

func (s *Battle) Resume() {}

func (s *Battle) Update(float64) error {
	if s.aborted {
		if s.params.FromConversation {
			s.env.Dialogue.Abort()
		}
		s.env.change(scene.Field, FieldParams{})
		return nil
	}
	b := s.Fight
	if b.Over() {
		s.leave()
		return nil
	}

	if b.State() != s.menu {
		s.menu, s.sel = b.State(), 0
	}
	var err error
	switch b.State() {
	case combat.StateCommand:
		err = s.commandInput()
	case combat.StateSkill:
		err = s.listInput(len(b.Skills()), b.SelectSkill)
	case combat.StateItem:
		err = s.listInput(len(b.Items()), b.SelectItem)
	case combat.StateTarget:
		err = s.targetInput()
	}
	s.flush()
	switch {
	case errors.Is(err, combat.ErrInsufficientCost):
		s.env.UI.Log("Not enough points.")
	case errors.Is(err, combat.ErrInvalidSelection):
		s.log.Debug("selection refused", zap.Error(err))
	case err != nil:
		return err
	}
	return nil
}

func (s *Battle) commandInput() error {
	b := s.Fight
	opts := b.Commands()
	s.sel = s.env.cursor(s.sel, len(opts)+1)
	if !s.env.pressed(scene.Confirm) {
		return nil
	}
	if s.sel == len(opts) {
		_, err := b.Escape()
		return err
	}
	return b.SelectCommand(s.sel)
}

func (s *Battle) listInput(n int, selectFn func(int) error) error {
	s.sel = s.env.cursor(s.sel, n)
	switch {
	case s.env.pressed(scene.Cancel):
		return s.Fight.Back()
	case s.env.pressed(scene.Confirm):
		return selectFn(s.sel)
	}
	return nil
}

func (s *Battle) targetInput() error {
	n := len(s.Fight.Targets())
	s.sel = s.env.cursor(s.sel, n)
	if n > 0 {
		if s.env.pressed(scene.TargetPrev) {
			s.sel = (s.sel - 1 + n) % n
		}
		if s.env.pressed(scene.TargetNext) {
			s.sel = (s.sel + 1) % n
		}
	}
	switch {
	case s.env.pressed(scene.Cancel):
		return s.Fight.Back()
	case s.env.pressed(scene.Confirm):
		return s.Fight.SelectTarget(s.sel)
	}
	return nil
}

// flush moves fresh combat log lines to the log pane and the battle panel.
func (s *Battle) flush() {
	for _, line := range s.Fight.Log() {
		s.env.UI.Log(line)
		s.lines = append(s.lines, line)
	}
	if len(s.lines) > battleLogLines {
		s.lines = s.lines[len(s.lines)-battleLogLines:]
	}
}

// leave routes to the next scene once the fight is decided.
func (s *Battle) leave() {
	b := s.Fight
	state := b.State()
	b.End()
	s.log.Info("battle over", zap.String("encounter", b.Encounter().ID), zap.String("state", state))

	switch state {
	case combat.StateVictory:
		s.env.change(scene.Result, ResultParams{FromConversation: s.params.FromConversation})
	case combat.StateEscaped:
		if s.params.FromConversation {
			s.env.change(scene.Field, FieldParams{Outcome: BattleLost})
			return
		}
		s.env.change(scene.Field, FieldParams{})
	case combat.StateDefeat:
		if s.params.FromConversation {
			s.env.change(scene.Field, FieldParams{Outcome: BattleLost})
			return
		}
		s.env.change(scene.Title, TitleParams{Message: "The party has fallen."})
	}
}

func (s *Battle) Render() {
	b := s.Fight
	if b == nil {
		return
	}
	s.env.UI.SetText(ui.PlayerStatus, statusLines(b.Allies)...)
	s.env.UI.SetText(ui.EnemyStatus, statusLines(b.Enemies)...)
	s.env.UI.SetText(ui.BattleLog, s.lines...)

	state := b.State()
	s.env.UI.Show(ui.CommandMenu, state == combat.StateCommand)
	s.env.UI.Show(ui.SkillMenu, state == combat.StateSkill)
	s.env.UI.Show(ui.TargetMenu, state == combat.StateTarget || state == combat.StateItem)

	switch state {
	case combat.StateCommand:
		opts := b.Commands()
		items := make([]string, 0, len(opts)+1)
		for _, o := range opts {
			items = append(items, label(o.Command.Name, o.Enabled))
		}
		items = append(items, escapeLabel)
		s.env.UI.SetList(ui.CommandMenu, items, s.sel)
	case combat.StateSkill:
		opts := b.Skills()
		items := make([]string, len(opts))
		for i, o := range opts {
			items[i] = label(fmt.Sprintf("%s (WP %d, JP %d)", o.Skill.Name, o.Skill.Cost.WP, o.Skill.Cost.JP), o.Enabled)
		}
		s.env.UI.SetList(ui.SkillMenu, items, s.sel)
	case combat.StateItem:
		opts := b.Items()
		items := make([]string, len(opts))
		for i, o := range opts {
			items[i] = fmt.Sprintf("%s x%d", o.Item.Name, o.Quantity)
		}
		s.env.UI.SetList(ui.TargetMenu, items, s.sel)
	case combat.StateTarget:
		ts := b.Targets()
		items := make([]string, len(ts))
		for i, t := range ts {
			items[i] = fmt.Sprintf("%s (HP %d/%d)", t.Name, t.HP, t.Stats.MaxHP)
		}
		s.env.UI.SetList(ui.TargetMenu, items, s.sel)
	}
	s.env.showHelp()
}

func label(name string, enabled bool) string {
	if enabled {
		return name
	}
	return name + " (-)"
}

// statusLines renders one line per combatant with its pools and the
// two-letter tags of its active effects.
func statusLines(cs []*combat.Combatant) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		line := fmt.Sprintf("%-10s HP %d/%d LP %d WP %d/%d JP %d/%d",
			c.Name, c.HP, c.Stats.MaxHP, c.LP, c.WP, c.Stats.MaxWP, c.JP, c.Stats.MaxJP)
		if len(c.Effects) > 0 {
			tags := make([]string, len(c.Effects))
			for i, e := range c.Effects {
				tags[i] = fmt.Sprintf("%s(%d)", effectTag(e.Def.ID), e.Duration)
			}
			line += " " + strings.Join(tags, " ")
		}
		if c.Guarding {
			line += " [guard]"
		}
		out = append(out, line)
	}
	return out
}

func effectTag(id string) string {
	if len(id) > 2 {
		id = id[:2]
	}
	return strings.ToUpper(id)
}
