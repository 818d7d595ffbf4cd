package scenes

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/ui"
)

const (
	menuFormation = "Formation"
	menuClose     = "Close"
)

// Menu is the pause overlay: party totals, inventory and quest log, with
// a jump to the formation overlay from the field.
type Menu struct {
	env *Env
	log *zap.Logger
	sel int
}

func NewMenu(env *Env) *Menu {
	return &Menu{env: env, log: env.logger("menu")}
}

func (s *Menu) Enter(any) error {
	s.sel = 0
	s.env.UI.Show(ui.Main, true)
	s.env.UI.Show(ui.Footer, true)
	return nil
}

func (s *Menu) Exit() {
	s.env.UI.Show(ui.Main, false)
	s.env.UI.Show(ui.Footer, false)
}

func (s *Menu) options() []string {
	if s.env.Scenes.Base() == scene.Field {
		return []string{menuFormation, menuClose}
	}
	return []string{menuClose}
}

func (s *Menu) Update(float64) error {
	opts := s.options()
	s.sel = s.env.cursor(s.sel, len(opts))
	if s.env.pressed(scene.Cancel) {
		s.env.Scenes.CloseOverlay()
		return nil
	}
	if !s.env.pressed(scene.Confirm) {
		return nil
	}
	switch opts[s.sel] {
	case menuFormation:
		s.env.Scenes.CloseOverlay()
		if err := s.env.Scenes.OpenOverlay(scene.Formation, nil); err != nil {
			s.log.Warn("formation unavailable", zap.Error(err))
		}
	case menuClose:
		s.env.Scenes.CloseOverlay()
	}
	return nil
}

// Lines is the menu body: totals, held items and quest states.
func (s *Menu) Lines() []string {
	gs := s.env.State
	lines := []string{fmt.Sprintf("Gold %d | EXP %d", gs.Gold, gs.Experience)}
	if p, ok := gs.ActiveParty(); ok {
		lines = append(lines, fmt.Sprintf("Party: %s (%s)", p.Name, s.formationName(gs.Formation())))
	}

	lines = append(lines, "", "Items:")
	inv := gs.Inventory()
	if len(inv) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, it := range inv {
		lines = append(lines, fmt.Sprintf("  %s x%d", s.env.Store.ItemName(it.ID), it.Value))
	}

	lines = append(lines, "", "Quests:")
	quests := gs.Quests()
	if len(quests) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, q := range quests {
		name := q.ID
		if def, ok := s.env.Store.Quest.Get(q.ID); ok {
			name = def.Name
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", name, q.Value))
	}
	return lines
}

func (s *Menu) formationName(id string) string {
	if f, ok := s.env.Store.Formation.Get(id); ok {
		return f.Name
	}
	return id
}

func (s *Menu) Render() {
	s.env.UI.SetText(ui.Main, s.Lines()...)
	s.env.UI.SetList(ui.Footer, s.options(), s.sel)
}
