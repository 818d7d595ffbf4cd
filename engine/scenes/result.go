package scenes

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/ui"
)

// Result consumes the pending encounter outcome, applies it and shows the
// rewards until Confirm.
type Result struct {
	env     *Env
	log     *zap.Logger
	params  ResultParams
	outcome *state.Outcome
}

func NewResult(env *Env) *Result {
	return &Result{env: env, log: env.logger("result")}
}

func (s *Result) Enter(params any) error {
	s.params, _ = params.(ResultParams)
	s.outcome = s.env.State.ConsumeEncounterOutcome()
	if s.outcome == nil {
		s.log.Warn("no outcome to show")
		return nil
	}
	s.env.State.ApplyOutcome(s.outcome)
	s.log.Info("outcome applied",
		zap.String("encounter", s.outcome.EncounterID),
		zap.Int("experience", s.outcome.Rewards.Experience),
		zap.Int("gold", s.outcome.Rewards.Gold))
	for _, id := range []string{ui.ResultScene, ui.ExpGained, ui.GoldGained, ui.LootList, ui.QuestProgressList} {
		s.env.UI.Show(id, true)
	}
	return nil
}

func (s *Result) Exit() {
	for _, id := range []string{ui.ResultScene, ui.ExpGained, ui.GoldGained, ui.LootList, ui.QuestProgressList} {
		s.env.UI.Show(id, false)
	}
}

func (s *Result) Update(float64) error {
	if s.outcome != nil && !s.env.pressed(scene.Confirm) {
		return nil
	}
	p := FieldParams{}
	if s.params.FromConversation {
		p.Outcome = BattleWon
	}
	s.env.change(scene.Field, p)
	return nil
}

func (s *Result) Render() {
	o := s.outcome
	if o == nil {
		return
	}
	s.env.UI.SetText(ui.ResultScene, "Victory!", "Press Confirm to continue.")
	s.env.UI.SetText(ui.ExpGained, fmt.Sprintf("EXP +%d", o.Rewards.Experience))
	s.env.UI.SetText(ui.GoldGained, fmt.Sprintf("Gold +%d", o.Rewards.Gold))

	loot := make([]string, len(o.Rewards.Items))
	for i, it := range o.Rewards.Items {
		loot[i] = fmt.Sprintf("%s x%d", s.env.Store.ItemName(it.ID), it.Quantity)
	}
	s.env.UI.SetText(ui.LootList, loot...)

	quests := make([]string, len(o.QuestProgress))
	for i, qp := range o.QuestProgress {
		quests[i] = fmt.Sprintf("%s: %s", s.questName(qp.QuestID), qp.State)
	}
	s.env.UI.SetText(ui.QuestProgressList, quests...)
}

func (s *Result) questName(id string) string {
	if q, ok := s.env.Store.Quest.Get(id); ok {
		return q.Name
	}
	return id
}
