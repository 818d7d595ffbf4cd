package combat

import "github.com/nathoo/sparksaga/types"

// ActiveStatusEffect is a status definition applied to one combatant.
// It records every stat delta it applied so removal is exact.
type ActiveStatusEffect struct {
	Def      *types.StatusEffect
	Duration int

	statChanges map[string]float64
}

func newActiveStatusEffect(def *types.StatusEffect) *ActiveStatusEffect {
	return &ActiveStatusEffect{
		Def:         def,
		Duration:    def.Duration,
		statChanges: map[string]float64{},
	}
}

func (e *ActiveStatusEffect) onApply(target *Combatant) {
	for _, entry := range e.Def.Effects {
		if entry.Type != types.StatChange || entry.Stat == "" || entry.Value == nil {
			continue
		}
		e.statChanges[entry.Stat] += target.adjust(entry.Stat, *entry.Value)
	}
}

// onTurnEnd burns one turn of duration and applies damage over time. It
// returns the damage dealt and whether it triggered a revival.
func (e *ActiveStatusEffect) onTurnEnd(target *Combatant) (int, bool) {
	e.Duration--
	dealt, revived := 0, false
	for _, entry := range e.Def.Effects {
		if entry.Type != types.DamageOverTime || entry.Stat != "hp" || entry.Value == nil {
			continue
		}
		d := int(*entry.Value)
		if target.ApplyDamage(d) {
			revived = true
		}
		dealt += d
	}
	return dealt, revived
}

func (e *ActiveStatusEffect) onRemove(target *Combatant) {
	for stat, delta := range e.statChanges {
		target.adjust(stat, -delta)
	}
	clear(e.statChanges)
}

func (e *ActiveStatusEffect) has(t types.StatusEffectType) bool {
	for _, entry := range e.Def.Effects {
		if entry.Type == t {
			return true
		}
	}
	return false
}

func (e *ActiveStatusEffect) IsExpired() bool { return e.Duration <= 0 }

// StatusResult is the outcome of AddStatusEffect.
type StatusResult int

const (
	StatusApplied StatusResult = iota
	StatusRefreshed
	StatusResisted
)

// AddStatusEffect rolls the target's summed resistance for the
// definition's tags, then applies the effect or refreshes the duration of
// an existing one with the same id.
func (c *Combatant) AddStatusEffect(def *types.StatusEffect) StatusResult {
	var r float64
	for _, tag := range def.ResistanceTags {
		r += c.Resistances[tag]
	}
	if c.rules.Rand.Float64() < r {
		return StatusResisted
	}

	for _, e := range c.Effects {
		if e.Def.ID == def.ID {
			e.Duration = def.Duration
			return StatusRefreshed
		}
	}

	e := newActiveStatusEffect(def)
	c.Effects = append(c.Effects, e)
	e.onApply(c)
	return StatusApplied
}

// RemoveStatusEffect removes an active effect by definition id, reversing
// its stat deltas. It reports whether one was removed.
func (c *Combatant) RemoveStatusEffect(id string) bool {
	for i, e := range c.Effects {
		if e.Def.ID == id {
			e.onRemove(c)
			c.Effects = append(c.Effects[:i], c.Effects[i+1:]...)
			return true
		}
	}
	return false
}

// HasStatusEffect reports whether an effect with this id is active.
func (c *Combatant) HasStatusEffect(id string) bool {
	for _, e := range c.Effects {
		if e.Def.ID == id {
			return true
		}
	}
	return false
}

// Tick describes one effect's turn-end processing.
type Tick struct {
	EffectID string
	Name     string
	Damage   int
	Revived  bool
	Expired  bool
}

// UpdateStatusEffects ends a turn for every active effect. Expired effects
// are removed with their deltas reversed; survivors stay in order.
func (c *Combatant) UpdateStatusEffects() []Tick {
	if len(c.Effects) == 0 {
		return nil
	}
	ticks := make([]Tick, 0, len(c.Effects))
	kept := c.Effects[:0]
	for _, e := range c.Effects {
		dmg, revived := e.onTurnEnd(c)
		t := Tick{EffectID: e.Def.ID, Name: e.Def.Name, Damage: dmg, Revived: revived}
		if e.IsExpired() {
			e.onRemove(c)
			t.Expired = true
		} else {
			kept = append(kept, e)
		}
		ticks = append(ticks, t)
	}
	for i := len(kept); i < len(c.Effects); i++ {
		c.Effects[i] = nil
	}
	c.Effects = kept
	return ticks
}

// CanAct is false while any effect prevents action.
func (c *Combatant) CanAct() bool {
	for _, e := range c.Effects {
		if e.has(types.PreventAction) {
			return false
		}
	}
	return true
}

func (c *Combatant) IsConfused() bool {
	for _, e := range c.Effects {
		if e.has(types.Confuse) {
			return true
		}
	}
	return false
}

func (c *Combatant) IsSilenced() bool {
	for _, e := range c.Effects {
		if e.has(types.DisableMagic) {
			return true
		}
	}
	return false
}
