package combat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/types"
)

// stubRand returns queued values first, then def forever.
type stubRand struct {
	vals []float64
	def  float64
}

func (r *stubRand) Float64() float64 {
	if len(r.vals) > 0 {
		v := r.vals[0]
		r.vals = r.vals[1:]
		return v
	}
	return r.def
}

func fixed(v float64) *stubRand { return &stubRand{def: v} }

var testBalance = types.Balance{
	PhysicalDamage: types.PhysicalCoefficients{WeaponAttackCoefficient: 1, StrengthCoefficient: 0.7, DefenseFactor: 50},
	MagicalDamage:  types.MagicalCoefficients{StaffCorrectionCoefficient: 1, IntelligenceCoefficient: 0.9, MagicDefenseFactor: 50},
}

func rulesWith(r Rand, formations ...types.Formation) *Rules {
	store := loader.NewStore(loader.Content{Formation: formations})
	return &Rules{Balance: testBalance, Formations: store.Formation, Rand: r}
}

func TestApplyDamage_RevivesOnce(t *testing.T) {
	rules := rulesWith(fixed(0.5))
	c := NewCombatant("d", "Defender", types.Stats{MaxHP: 100, MaxLP: 1}, nil, "", types.Front, rules)

	revived := c.ApplyDamage(100)
	assert.True(t, revived)
	assert.Equal(t, 20, c.HP)
	assert.Equal(t, 0, c.LP)
	assert.True(t, c.HasRevived)

	revived = c.ApplyDamage(20)
	assert.False(t, revived)
	assert.Equal(t, 0, c.HP)
	assert.Equal(t, 0, c.LP)
}

func TestApplyDamage_SecondZeroCrossingKeepsLP(t *testing.T) {
	rules := rulesWith(fixed(0.5))
	c := NewCombatant("d", "Defender", types.Stats{MaxHP: 100, MaxLP: 2}, nil, "", types.Front, rules)

	require.True(t, c.ApplyDamage(100))
	require.Equal(t, 1, c.LP)

	assert.False(t, c.ApplyDamage(20))
	assert.Equal(t, 0, c.HP)
	assert.Equal(t, 1, c.LP, "revival is spent for this encounter")
	assert.False(t, c.Alive())

	c.Reset()
	assert.Equal(t, 100, c.HP)
	assert.Equal(t, 2, c.LP)
	assert.False(t, c.HasRevived)
}

func TestApplyDamage_NeverNegative(t *testing.T) {
	c := NewCombatant("d", "D", types.Stats{MaxHP: 10}, nil, "", types.Front, rulesWith(fixed(0.5)))
	c.ApplyDamage(-5)
	assert.Equal(t, 10, c.HP)
	c.ApplyDamage(500)
	assert.Equal(t, 0, c.HP)
}

func TestCalculateDamage_FormationMath(t *testing.T) {
	rules := rulesWith(fixed(0.95),
		types.Formation{ID: "spear", Name: "Spear", Rows: []types.Row{types.Front},
			Modifiers: types.FormationModifiers{Front: types.RowModifiers{Attack: 0.2}}},
		types.Formation{ID: "wall", Name: "Wall", Rows: []types.Row{types.Back},
			Modifiers: types.FormationModifiers{Back: types.RowModifiers{Defense: 0.1}}},
	)
	rules.Balance = types.Balance{
		PhysicalDamage: types.PhysicalCoefficients{WeaponAttackCoefficient: 1, StrengthCoefficient: 1, DefenseFactor: 100},
	}
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, WeaponAttack: 20, Strength: 10}, nil, "spear", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 10, Defense: 10}, nil, "wall", types.Back, rules)

	assert.Equal(t, 41, defender.CalculateDamage(10, attacker, types.Physical, types.Slash))
}

func TestCalculateDamage_PhysicalWithoutDefense(t *testing.T) {
	rules := rulesWith(fixed(0.5))
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, WeaponAttack: 10, Strength: 10}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 10}, nil, "", types.Front, rules)

	// 10*1 + 10*0.7 + 5
	assert.Equal(t, 22, defender.CalculateDamage(5, attacker, types.Physical, types.Slash))
}

func TestCalculateDamage_MagicalAndResistance(t *testing.T) {
	rules := rulesWith(fixed(0.5))
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, StaffCorrection: 10, Intelligence: 10}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 10, Defense: 1000}, types.Resistances{"fire": 1.5}, "", types.Front, rules)

	// (10 + 9 + 20) * 1.5, physical defense ignored
	assert.Equal(t, 59, defender.CalculateDamage(20, attacker, types.Magical, types.Fire))
	assert.Equal(t, 39, defender.CalculateDamage(20, attacker, types.Magical, types.Ice))
}

func TestHitEvasion_NoMissWhenDexterityDominates(t *testing.T) {
	rules := rulesWith(rand.New(rand.NewSource(7)))
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, Dexterity: 12}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 10, Agility: 9}, nil, "", types.Front, rules)

	for i := 0; i < 2000; i++ {
		require.NotEqual(t, Miss, defender.CalculateHitEvasionAndCritical(attacker, 1))
	}
}

func TestHitEvasion_MissRateConverges(t *testing.T) {
	rules := rulesWith(rand.New(rand.NewSource(11)))
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, Dexterity: 0}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 10, Agility: 25}, nil, "", types.Front, rules)

	const n = 20000
	misses := 0
	for i := 0; i < n; i++ {
		if defender.CalculateHitEvasionAndCritical(attacker, 1) == Miss {
			misses++
		}
	}
	assert.InDelta(t, 0.5, float64(misses)/n, 0.02)
}

func TestHitEvasion_CriticalRateCapped(t *testing.T) {
	rules := rulesWith(rand.New(rand.NewSource(3)))
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, Dexterity: 50, CriticalChance: 0.9}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 10}, nil, "", types.Front, rules)

	const n = 20000
	crits := 0
	for i := 0; i < n; i++ {
		if defender.CalculateHitEvasionAndCritical(attacker, 1) == Critical {
			crits++
		}
	}
	assert.LessOrEqual(t, float64(crits)/n, CritCap+0.015)
	assert.Greater(t, crits, 0)
}

func TestFinalSpeedAndCritical(t *testing.T) {
	rules := rulesWith(fixed(0.5), types.Formation{
		ID: "square", Name: "Square", Rows: []types.Row{types.Front, types.Back},
		Modifiers: types.FormationModifiers{
			Front: types.RowModifiers{Defense: 0.1},
			Back:  types.RowModifiers{Speed: 0.05, Critical: 0.02},
		},
	})
	front := NewCombatant("f", "F", types.Stats{MaxHP: 1, Speed: 10, CriticalChance: 0.1}, nil, "square", types.Front, rules)
	back := NewCombatant("b", "B", types.Stats{MaxHP: 1, Speed: 10, CriticalChance: 0.1}, nil, "square", types.Back, rules)
	none := NewCombatant("n", "N", types.Stats{MaxHP: 1, Speed: 10}, nil, "missing", types.Back, rules)

	assert.Equal(t, 10.0, front.FinalSpeed())
	assert.InDelta(t, 10.5, back.FinalSpeed(), 1e-9)
	assert.InDelta(t, 0.12, back.FinalCriticalChance(), 1e-9)
	assert.Equal(t, 10.0, none.FinalSpeed(), "unknown formation contributes nothing")
}

func TestTakeDamage_GuardHalves(t *testing.T) {
	rules := rulesWith(fixed(0.5))
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, WeaponAttack: 21}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 100}, nil, "", types.Front, rules)

	res := defender.TakeDamage(0, attacker, types.Physical, types.Slash, 1, DefaultCritMultiplier)
	assert.Equal(t, Hit, res.Outcome)
	assert.Equal(t, 21, res.Damage)

	defender.Guarding = true
	res = defender.TakeDamage(0, attacker, types.Physical, types.Slash, 1, DefaultCritMultiplier)
	assert.Equal(t, 10, res.Damage)
	assert.Equal(t, 69, defender.HP)
}

func TestTakeDamage_CriticalMultiplies(t *testing.T) {
	// hit roll 0.5, crit roll 0.05, damage roll 0.5
	rules := rulesWith(&stubRand{vals: []float64{0.5, 0.05}, def: 0.5})
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, WeaponAttack: 20, CriticalChance: 0.1}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 100}, nil, "", types.Front, rules)

	res := defender.TakeDamage(0, attacker, types.Physical, types.Slash, 1, DefaultCritMultiplier)
	assert.Equal(t, Critical, res.Outcome)
	assert.Equal(t, 30, res.Damage)
}

func TestTakeDamage_MissDealsNothing(t *testing.T) {
	rules := rulesWith(fixed(0.99))
	attacker := NewCombatant("a", "A", types.Stats{MaxHP: 10, WeaponAttack: 20}, nil, "", types.Front, rules)
	defender := NewCombatant("d", "D", types.Stats{MaxHP: 100, Agility: 25}, nil, "", types.Front, rules)

	res := defender.TakeDamage(0, attacker, types.Physical, types.Slash, 1, DefaultCritMultiplier)
	assert.Equal(t, DamageResult{Outcome: Miss}, res)
	assert.Equal(t, 100, defender.HP)
}

func TestPayAndRestore(t *testing.T) {
	c := NewCombatant("c", "C", types.Stats{MaxHP: 50, MaxWP: 10, MaxJP: 4}, nil, "", types.Front, rulesWith(fixed(0.5)))

	assert.False(t, c.Pay(types.SkillCost{WP: 5, JP: 6}))
	assert.Equal(t, 10, c.WP)
	assert.True(t, c.Pay(types.SkillCost{WP: 5, JP: 4}))
	assert.Equal(t, 5, c.WP)
	assert.Equal(t, 0, c.JP)

	c.ApplyDamage(40)
	assert.Equal(t, 30, c.Restore("hp", 30))
	assert.Equal(t, 40, c.HP)
	assert.Equal(t, 10, c.Restore("hp", 30), "restore is capped at max")
	assert.Equal(t, 0, c.Restore("gold", 3))
}
