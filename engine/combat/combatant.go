// Package combat implements combatants, the status-effect runtime and the
// turn-based battle engine.
//
// All randomness is drawn from a single Rand, so seeding it replays a
// battle exactly.
package combat

import (
	"math"

	"github.com/nathoo/sparksaga/types"
)

// Rand is the uniform source every stochastic decision draws from.
type Rand interface {
	Float64() float64
}

// FormationSource resolves formation ids. loader.Table[types.Formation]
// satisfies it.
type FormationSource interface {
	Get(id string) (*types.Formation, bool)
}

// Rules bundles the content a combatant consults during resolution.
type Rules struct {
	Balance    types.Balance
	Formations FormationSource
	Rand       Rand
}

const (
	// CritCap bounds the final critical chance.
	CritCap = 0.3
	// DefaultCritMultiplier scales critical damage.
	DefaultCritMultiplier = 1.5
	reviveFraction        = 0.2
	hitPerDexterity       = 0.02
)

// HitOutcome is the result of a hit/evasion/critical check.
type HitOutcome string

const (
	Miss     HitOutcome = "Miss"
	Hit      HitOutcome = "Hit"
	Critical HitOutcome = "Critical"
)

// DamageResult reports what TakeDamage did.
type DamageResult struct {
	Outcome HitOutcome
	Damage  int
	Revived bool
}

// Combatant is the per-battle mutable view of a party member or enemy.
type Combatant struct {
	ID   string
	Name string
	Ally bool

	// EnemyID is the enemy definition an enemy combatant was built from.
	EnemyID string

	// Stats holds the base vector plus equipment and live status deltas.
	Stats       types.Stats
	Resistances types.Resistances

	HP, LP, WP, JP int
	HasRevived     bool
	Guarding       bool

	FormationID string
	Position    types.Row

	Effects []*ActiveStatusEffect

	rules *Rules
}

// NewCombatant creates a combatant at full resources.
func NewCombatant(id, name string, stats types.Stats, res types.Resistances, formationID string, pos types.Row, rules *Rules) *Combatant {
	if res == nil {
		res = types.Resistances{}
	}
	return &Combatant{
		ID:          id,
		Name:        name,
		Stats:       stats,
		Resistances: res,
		HP:          stats.MaxHP,
		LP:          stats.MaxLP,
		WP:          stats.MaxWP,
		JP:          stats.MaxJP,
		FormationID: formationID,
		Position:    pos,
		rules:       rules,
	}
}

func (c *Combatant) Alive() bool { return c.HP > 0 }

// modifiers returns the row modifiers of the combatant's formation seat.
// Unknown formations contribute nothing.
func (c *Combatant) modifiers() types.RowModifiers {
	if c.rules == nil || c.rules.Formations == nil || c.FormationID == "" {
		return types.RowModifiers{}
	}
	f, ok := c.rules.Formations.Get(c.FormationID)
	if !ok {
		return types.RowModifiers{}
	}
	if c.Position == types.Back {
		return f.Modifiers.Back
	}
	return f.Modifiers.Front
}

// FinalSpeed is speed after the formation speed modifier.
func (c *Combatant) FinalSpeed() float64 {
	return c.Stats.Speed * (1 + c.modifiers().Speed)
}

// FinalCriticalChance is critical chance after the formation modifier.
func (c *Combatant) FinalCriticalChance() float64 {
	return c.Stats.CriticalChance + c.modifiers().Critical
}

// CalculateDamage computes the damage attacker would deal to c with an
// action of the given power, type and element. It draws one random value
// for the [0.9, 1.1) spread.
func (c *Combatant) CalculateDamage(power float64, attacker *Combatant, typ types.DamageType, element types.Element) int {
	bal := c.rules.Balance
	power *= 1 + attacker.modifiers().Attack
	defMod := 1 + c.modifiers().Defense

	var base, def, factor float64
	if typ == types.Magical {
		base = attacker.Stats.StaffCorrection*bal.MagicalDamage.StaffCorrectionCoefficient +
			attacker.Stats.Intelligence*bal.MagicalDamage.IntelligenceCoefficient + power
		def = c.Stats.MagicDefense * defMod
		factor = bal.MagicalDamage.MagicDefenseFactor
	} else {
		base = attacker.Stats.WeaponAttack*bal.PhysicalDamage.WeaponAttackCoefficient +
			attacker.Stats.Strength*bal.PhysicalDamage.StrengthCoefficient + power
		def = c.Stats.Defense * defMod
		factor = bal.PhysicalDamage.DefenseFactor
	}

	dmg := base
	if def+factor > 0 {
		dmg = base * (1 - def/(def+factor))
	}
	if r, ok := c.Resistances[string(element)]; ok {
		dmg *= r
	}
	dmg *= c.rules.Rand.Float64()*0.2 + 0.9
	if dmg < 0 {
		return 0
	}
	return int(math.Round(dmg))
}

// CalculateHitEvasionAndCritical rolls whether attacker hits c, and if so
// whether the hit is critical. The miss roll always happens first.
func (c *Combatant) CalculateHitEvasionAndCritical(attacker *Combatant, baseHit float64) HitOutcome {
	hit := clamp(baseHit+(attacker.Stats.Dexterity-c.Stats.Agility)*hitPerDexterity, 0, 1)
	if c.rules.Rand.Float64() > hit {
		return Miss
	}
	crit := math.Min(CritCap, attacker.FinalCriticalChance())
	if c.rules.Rand.Float64() < crit {
		return Critical
	}
	return Hit
}

// TakeDamage resolves an incoming action: hit check, damage roll, critical
// multiplier, guard halving, then ApplyDamage.
func (c *Combatant) TakeDamage(power float64, attacker *Combatant, typ types.DamageType, element types.Element, baseHit, critMultiplier float64) DamageResult {
	outcome := c.CalculateHitEvasionAndCritical(attacker, baseHit)
	if outcome == Miss {
		return DamageResult{Outcome: Miss}
	}
	dmg := c.CalculateDamage(power, attacker, typ, element)
	if outcome == Critical {
		dmg = int(math.Round(float64(dmg) * critMultiplier))
	}
	if c.Guarding {
		dmg /= 2
	}
	return DamageResult{Outcome: outcome, Damage: dmg, Revived: c.ApplyDamage(dmg)}
}

// ApplyDamage lowers HP, reviving once per encounter when LP remains.
// It reports whether the revival fired.
func (c *Combatant) ApplyDamage(d int) bool {
	if d < 0 {
		d = 0
	}
	c.HP = max(0, c.HP-d)
	if c.HP == 0 && c.LP > 0 && !c.HasRevived {
		c.LP--
		c.HP = int(math.Floor(float64(c.Stats.MaxHP) * reviveFraction))
		c.HasRevived = true
		return true
	}
	return false
}

// Reset restores every resource, removes all status effects and clears
// the revival and guard marks.
func (c *Combatant) Reset() {
	for _, e := range c.Effects {
		e.onRemove(c)
	}
	c.Effects = nil
	c.HP = c.Stats.MaxHP
	c.LP = c.Stats.MaxLP
	c.WP = c.Stats.MaxWP
	c.JP = c.Stats.MaxJP
	c.HasRevived = false
	c.Guarding = false
}

// CanAfford reports whether the combatant can pay a skill cost.
func (c *Combatant) CanAfford(cost types.SkillCost) bool {
	return c.WP >= cost.WP && c.JP >= cost.JP
}

// Pay deducts a skill cost. It reports false and changes nothing when the
// cost is unaffordable.
func (c *Combatant) Pay(cost types.SkillCost) bool {
	if !c.CanAfford(cost) {
		return false
	}
	c.WP -= cost.WP
	c.JP -= cost.JP
	return true
}

// adjust adds delta to a named stat and returns the delta actually
// applied. Resource pools are clamped to [0, max].
func (c *Combatant) adjust(stat string, delta float64) float64 {
	pool := func(cur *int, limit int) float64 {
		before := *cur
		*cur = int(clamp(float64(before)+math.Round(delta), 0, float64(limit)))
		return float64(*cur - before)
	}
	s := &c.Stats
	switch stat {
	case "hp":
		return pool(&c.HP, s.MaxHP)
	case "wp":
		return pool(&c.WP, s.MaxWP)
	case "jp":
		return pool(&c.JP, s.MaxJP)
	case "strength":
		s.Strength += delta
	case "defense":
		s.Defense += delta
	case "intelligence":
		s.Intelligence += delta
	case "magicDefense":
		s.MagicDefense += delta
	case "speed":
		s.Speed += delta
	case "dexterity":
		s.Dexterity += delta
	case "agility":
		s.Agility += delta
	default:
		return 0
	}
	return delta
}

// Restore heals a resource pool ("hp", "wp" or "jp") and returns the
// amount actually restored.
func (c *Combatant) Restore(pool string, amount int) int {
	switch pool {
	case "hp", "wp", "jp":
		return int(c.adjust(pool, float64(amount)))
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
