package scenes

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/combat"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/ui"
)

// Formation previews each formation's effect on the active party and sets
// the one combat will use.
type Formation struct {
	env *Env
	log *zap.Logger
	sel int
}

func NewFormation(env *Env) *Formation {
	return &Formation{env: env, log: env.logger("formation")}
}

func (s *Formation) Enter(any) error {
	s.sel = 0
	current := s.env.State.Formation()
	for i, f := range s.env.Store.Formation.All {
		if f.ID == current {
			s.sel = i
		}
	}
	s.env.UI.Show(ui.Main, true)
	s.env.UI.Show(ui.Footer, true)
	return nil
}

func (s *Formation) Exit() {
	s.env.UI.Show(ui.Main, false)
	s.env.UI.Show(ui.Footer, false)
}

func (s *Formation) Update(float64) error {
	all := s.env.Store.Formation.All
	s.sel = s.env.cursor(s.sel, len(all))
	switch {
	case s.env.pressed(scene.Cancel):
		s.env.Scenes.CloseOverlay()
	case s.env.pressed(scene.Confirm) && len(all) > 0:
		f := all[s.sel]
		s.env.State.SetFormation(f.ID)
		s.env.UI.Log(fmt.Sprintf("Formation set to %s.", f.Name))
		s.log.Info("formation set", zap.String("formation", f.ID))
		s.env.Scenes.CloseOverlay()
	}
	return nil
}

// Preview describes the highlighted formation, one line per member.
func (s *Formation) Preview() []string {
	all := s.env.Store.Formation.All
	party, ok := s.env.State.ActiveParty()
	if !ok || len(all) == 0 {
		return []string{"No party to arrange."}
	}
	f := all[s.sel]
	lines := []string{fmt.Sprintf("%s (%s)", f.Name, f.ID), "Name       Row Speed  Crit  Atk   Def"}
	for _, p := range combat.Preview(s.env.Store.Formation, party, f.ID) {
		lines = append(lines, fmt.Sprintf("%-10s %-3s %5.1f %5.2f %+5.2f %+5.2f",
			p.Name, p.Seat, p.Speed, p.Critical, p.Attack, p.Defense))
	}
	return lines
}

func (s *Formation) Render() {
	all := s.env.Store.Formation.All
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = f.Name
	}
	s.env.UI.SetText(ui.Main, s.Preview()...)
	s.env.UI.SetList(ui.Footer, names, s.sel)
}
