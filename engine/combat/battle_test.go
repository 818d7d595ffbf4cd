package combat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/types"
)

// battleStore builds a tiny corpus: a hero with every command type against
// wolves whose stats the caller controls.
func battleStore(hero types.Stats, wolf types.Stats, wolves int) *loader.Store {
	return loader.NewStore(battleContent(hero, wolf, wolves))
}

func battleContent(hero types.Stats, wolf types.Stats, wolves int) loader.Content {
	enemies := make([]types.EncounterEnemy, wolves)
	for i := range enemies {
		enemies[i] = types.EncounterEnemy{ID: string(rune('a'+i)) + "_wolf", EnemyID: "wolf", FormationPosition: types.Front}
	}
	return loader.Content{
		Balance:   testBalance,
		Formation: []types.Formation{{ID: "line", Name: "Line", Rows: []types.Row{types.Front}}},
		Party: []types.Party{{
			ID: "heroes", Name: "Heroes", Formation: "line",
			Members: []types.PartyMember{{
				ID: "hero", Name: "Hero", FormationPosition: types.Front, Stats: hero,
				Commands: []types.Command{
					{ID: "attack", Name: "Attack", Type: types.CommandAttack},
					{ID: "guard", Name: "Guard", Type: types.CommandDefend},
					{ID: "items", Name: "Items", Type: types.CommandItem, Items: []types.ItemQuantity{{ID: "potion", Quantity: 1}}},
					{ID: "arts", Name: "Arts", Type: types.CommandSkill, Skills: []string{"slash"}},
				},
			}},
		}},
		Enemy: []types.Enemy{{ID: "wolf", Name: "Wolf", Level: 1, Stats: wolf}},
		Skill: []types.Skill{{ID: "slash", Name: "Slash", Power: 5, Element: types.Slash, Cost: types.SkillCost{WP: 5}}},
		Item:  []types.Item{{ID: "potion", Name: "Potion", Effect: "heal_hp:30"}, {ID: "pelt", Name: "Pelt"}},
		LootTable: []types.LootTable{{ID: "drops", Entries: []types.LootEntry{
			{ItemID: "pelt", Quantity: 1, Chance: 0.6},
			{ItemID: "potion", Quantity: 1, Chance: 0.4},
		}}},
		Encounter: []types.Encounter{{
			ID: "pack", Name: "Wolf pack", Enemies: enemies,
			Rewards: types.Rewards{
				Experience: 24, Gold: 12,
				Items:      []types.ItemQuantity{{ID: "potion", Quantity: 1}},
				LootTables: []string{"drops"},
			},
			QuestProgress: []types.QuestProgress{{QuestID: "sample_quest", State: types.QuestCompleted}},
		}},
	}
}

func newTestBattle(t *testing.T, store *loader.Store, r Rand) (*Battle, *state.GameState) {
	t.Helper()
	gs := state.New(store)
	b, err := NewBattle(Deps{Store: store, State: gs, Rand: r, Logger: zap.NewNop()}, "pack")
	require.NoError(t, err)
	return b, gs
}

func TestNewBattle_Errors(t *testing.T) {
	store := battleStore(types.Stats{MaxHP: 10}, types.Stats{MaxHP: 10}, 1)
	_, err := NewBattle(Deps{Store: store, State: state.New(store), Rand: fixed(0.5)}, "nowhere")
	assert.True(t, errors.Is(err, ErrEncounterNotFound))

	empty := loader.NewStore(loader.Content{Encounter: store.Encounter.All})
	_, err = NewBattle(Deps{Store: empty, State: state.New(empty), Rand: fixed(0.5)}, "pack")
	assert.True(t, errors.Is(err, state.ErrNoPartyAvailable))
}

func TestNewBattle_TurnOrderAndNames(t *testing.T) {
	store := battleStore(types.Stats{MaxHP: 10, Speed: 10}, types.Stats{MaxHP: 10, Speed: 10}, 2)
	b, _ := newTestBattle(t, store, fixed(0.5))

	require.Len(t, b.Enemies, 2)
	assert.Equal(t, "Wolf A", b.Enemies[0].Name)
	assert.Equal(t, "Wolf B", b.Enemies[1].Name)
	assert.Equal(t, "hero", b.order[0].ID, "allies win speed ties")
	assert.Equal(t, StateIdle, b.State())
}

func TestBattle_AttackToVictory(t *testing.T) {
	store := battleStore(
		types.Stats{MaxHP: 50, Speed: 10, WeaponAttack: 100},
		types.Stats{MaxHP: 10, Speed: 5},
		1,
	)
	b, gs := newTestBattle(t, store, fixed(0.5))

	require.NoError(t, b.Start())
	assert.Equal(t, StateCommand, b.State())
	assert.Equal(t, "hero", b.Current().ID)

	require.NoError(t, b.SelectCommand(0))
	assert.Equal(t, StateTarget, b.State())
	require.Len(t, b.Targets(), 1)

	require.NoError(t, b.SelectTarget(0))
	assert.Equal(t, StateVictory, b.State())
	assert.True(t, b.Over())
	assert.Contains(t, b.Log(), "Victory!")

	o := gs.ConsumeEncounterOutcome()
	require.NotNil(t, o)
	assert.Equal(t, "pack", o.EncounterID)
	assert.Equal(t, []types.ItemQuantity{{ID: "potion", Quantity: 1}, {ID: "pelt", Quantity: 1}}, o.Rewards.Items)
	assert.Equal(t, 24, o.Rewards.Experience)
	assert.Equal(t, b.Outcome().Rewards, o.Rewards)
}

func TestBattle_EnemyTurnAndGuard(t *testing.T) {
	store := battleStore(
		types.Stats{MaxHP: 50, Speed: 5},
		types.Stats{MaxHP: 100, Speed: 20, WeaponAttack: 10},
		1,
	)
	b, _ := newTestBattle(t, store, fixed(0.5))

	require.NoError(t, b.Start())
	hero := b.Allies[0]
	assert.Equal(t, 40, hero.HP, "wolf acts first")
	assert.Equal(t, StateCommand, b.State())

	require.NoError(t, b.SelectCommand(1))
	assert.Equal(t, 35, hero.HP, "guarding halves the next hit")
	assert.False(t, hero.Guarding, "guard ends when the hero's turn starts")
	assert.Equal(t, StateCommand, b.State())
}

func TestBattle_Defeat(t *testing.T) {
	store := battleStore(
		types.Stats{MaxHP: 5, Speed: 5},
		types.Stats{MaxHP: 100, Speed: 20, WeaponAttack: 10},
		1,
	)
	b, gs := newTestBattle(t, store, fixed(0.5))

	require.NoError(t, b.Start())
	assert.Equal(t, StateDefeat, b.State())
	assert.False(t, gs.HasPendingOutcome())
}

func TestBattle_ItemUse(t *testing.T) {
	store := battleStore(
		types.Stats{MaxHP: 50, Speed: 5},
		types.Stats{MaxHP: 100, Speed: 20, WeaponAttack: 10},
		1,
	)
	b, gs := newTestBattle(t, store, fixed(0.5))
	require.NoError(t, b.Start())

	opts := b.Commands()
	require.Len(t, opts, 4)
	assert.False(t, opts[2].Enabled, "no potion held")
	assert.True(t, errors.Is(b.SelectCommand(2), ErrInvalidSelection))

	gs.GrantItem("potion", 1)
	require.NoError(t, b.SelectCommand(2))
	assert.Equal(t, StateItem, b.State())
	items := b.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	require.NoError(t, b.SelectItem(0))
	require.Equal(t, []*Combatant{b.Allies[0]}, b.Targets())
	require.NoError(t, b.SelectTarget(0))

	assert.Zero(t, gs.ItemQuantity("potion"))
	// 40 + 30 healed, then the wolf's next hit
	assert.Equal(t, 40, b.Allies[0].HP)
	assert.Contains(t, b.Log(), "Hero recovers 10 HP.")
}

func TestBattle_SkillCostAndBack(t *testing.T) {
	store := battleStore(
		types.Stats{MaxHP: 50, MaxWP: 5, Speed: 20, WeaponAttack: 1},
		types.Stats{MaxHP: 100, Speed: 5},
		1,
	)
	b, _ := newTestBattle(t, store, fixed(0.5))
	require.NoError(t, b.Start())

	require.NoError(t, b.SelectCommand(3))
	assert.Equal(t, StateSkill, b.State())
	require.NoError(t, b.Back())
	assert.Equal(t, StateCommand, b.State())

	require.NoError(t, b.SelectCommand(3))
	require.NoError(t, b.SelectSkill(0))
	require.NoError(t, b.SelectTarget(0))
	assert.Equal(t, 0, b.Allies[0].WP)
	assert.Equal(t, 94, b.Enemies[0].HP)

	assert.False(t, b.Commands()[3].Enabled, "skill is unaffordable now")
	assert.True(t, errors.Is(b.SelectCommand(3), ErrInvalidSelection))
}

func TestBattle_Escape(t *testing.T) {
	store := battleStore(types.Stats{MaxHP: 50, Speed: 20}, types.Stats{MaxHP: 100, Speed: 5}, 1)

	b, _ := newTestBattle(t, store, &stubRand{vals: []float64{0.1}, def: 0.5})
	require.NoError(t, b.Start())
	ok, err := b.Escape()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateEscaped, b.State())

	b, _ = newTestBattle(t, store, fixed(0.5))
	require.NoError(t, b.Start())
	ok, err = b.Escape()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateCommand, b.State(), "the wolf acts and the hero decides again")
	assert.Equal(t, 3, b.Turns())
}

func TestBattle_StunnedActorIsSkipped(t *testing.T) {
	store := battleStore(
		types.Stats{MaxHP: 50, Speed: 20},
		types.Stats{MaxHP: 100, Speed: 5, WeaponAttack: 10},
		1,
	)
	b, _ := newTestBattle(t, store, fixed(0.99))
	b.Enemies[0].AddStatusEffect(&types.StatusEffect{ID: "stun", Name: "Stun", Duration: 2,
		Effects: []types.StatusEffectEntry{{Type: types.PreventAction}}})

	require.NoError(t, b.Start())
	require.NoError(t, b.SelectCommand(1))
	assert.Equal(t, 50, b.Allies[0].HP)
	assert.Contains(t, b.Log(), "Wolf cannot act.")
}

func TestSeatAndPreview(t *testing.T) {
	wedge := types.Formation{
		ID: "wedge", Name: "Wedge", Rows: []types.Row{types.Back},
		Modifiers: types.FormationModifiers{
			Front: types.RowModifiers{Attack: 0.2},
			Back:  types.RowModifiers{Speed: 0.5, Critical: 0.05, Defense: 0.1},
		},
	}
	party := &types.Party{ID: "p", Name: "P", Formation: "wedge", Members: []types.PartyMember{
		{ID: "a", Name: "A", FormationPosition: types.Front, Stats: types.Stats{MaxHP: 1, Speed: 10, CriticalChance: 0.1}},
		{ID: "b", Name: "B", Stats: types.Stats{MaxHP: 1, Speed: 10}},
	}}

	assert.Equal(t, types.Back, Seat(&wedge, 0, &party.Members[0]), "formation row wins")
	assert.Equal(t, types.Front, Seat(&wedge, 1, &party.Members[1]), "no row and no position")
	assert.Equal(t, types.Front, Seat(nil, 0, &party.Members[0]))

	got := Preview(rulesWith(nil, wedge).Formations, party, "wedge")
	require.Len(t, got, 2)
	assert.Equal(t, types.Back, got[0].Seat)
	assert.InDelta(t, 15.0, got[0].Speed, 1e-9)
	assert.InDelta(t, 0.15, got[0].Critical, 1e-9)
	assert.InDelta(t, 0.1, got[0].Defense, 1e-9)
	assert.InDelta(t, 0.2, got[1].Attack, 1e-9)
	assert.InDelta(t, 10.0, got[1].Speed, 1e-9)
}

func TestBattle_EnemySkillsAndStatus(t *testing.T) {
	tests := []struct {
		name    string
		roll    float64
		agility float64
		resist  float64
		wantLog []string
		noLog   []string
		heroHP  int
		wolfHP  int
		wolfWP  int
		turns   int
	}{
		{
			name:    "skill afflicts and confusion turns the hero",
			roll:    0.5,
			wantLog: []string{
				"Wolf uses Bite on Hero for 7 damage.",
				"Hero is afflicted with Daze.",
				"Hero is confused!",
				"Hero attacks Wolf for 10 damage.",
				"Hero's Daze is renewed.",
				"Wolf attacks Hero for 0 damage.",
				"Hero is no longer affected by Daze.",
			},
			heroHP: 86,
			wolfHP: 80,
			wolfWP: 0,
			turns:  6,
		},
		{
			name:    "basic attack above the skill rate",
			roll:    0.7,
			wantLog: []string{"Wolf attacks Hero for 0 damage."},
			noLog:   []string{"Hero is afflicted with Daze."},
			heroHP:  100,
			wolfHP:  100,
			wolfWP:  10,
			turns:   2,
		},
		{
			name:    "resisted status",
			roll:    0.5,
			resist:  1,
			wantLog: []string{"Wolf uses Bite on Hero for 7 damage.", "Hero resists Daze."},
			noLog:   []string{"Hero is confused!"},
			heroHP:  93,
			wolfHP:  100,
			wolfWP:  5,
			turns:   2,
		},
		{
			name:    "missed skill still costs and applies nothing",
			roll:    0.5,
			agility: 50,
			wantLog: []string{"Wolf uses Bite on Hero but misses."},
			noLog:   []string{"Hero is afflicted with Daze."},
			heroHP:  100,
			wolfHP:  100,
			wolfWP:  5,
			turns:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := battleContent(
				types.Stats{MaxHP: 100, Speed: 5, WeaponAttack: 10, Agility: tt.agility},
				types.Stats{MaxHP: 100, MaxWP: 10, Speed: 20},
				1,
			)
			c.Party[0].Members[0].Resistances = types.Resistances{"mind": tt.resist}
			c.Enemy[0].Skills = []string{"bite"}
			c.Skill = append(c.Skill, types.Skill{ID: "bite", Name: "Bite", Power: 7, Element: types.Slash,
				Cost: types.SkillCost{WP: 5}, StatusEffects: []string{"daze"}})
			c.StatusEffects = []types.StatusEffect{{ID: "daze", Name: "Daze", Duration: 2,
				Effects: []types.StatusEffectEntry{{Type: types.Confuse}}, ResistanceTags: []string{"mind"}}}

			b, _ := newTestBattle(t, loader.NewStore(c), fixed(tt.roll))
			require.NoError(t, b.Start())

			assert.Equal(t, StateCommand, b.State())
			assert.Equal(t, "hero", b.Current().ID)
			log := b.Log()
			for _, want := range tt.wantLog {
				assert.Contains(t, log, want)
			}
			for _, no := range tt.noLog {
				assert.NotContains(t, log, no)
			}
			assert.Equal(t, tt.heroHP, b.Allies[0].HP)
			assert.Equal(t, tt.wolfHP, b.Enemies[0].HP)
			assert.Equal(t, tt.wolfWP, b.Enemies[0].WP)
			assert.Equal(t, tt.turns, b.Turns())
			assert.False(t, b.Allies[0].HasStatusEffect("daze"))
		})
	}
}

func TestBattle_EnemySkillsFollowTheirOwnDefinition(t *testing.T) {
	c := battleContent(types.Stats{MaxHP: 100, Speed: 5}, types.Stats{MaxHP: 100, MaxWP: 10, Speed: 20}, 0)
	c.Enemy = append(c.Enemy, types.Enemy{ID: "hound", Name: "Hound", Level: 1,
		Stats: types.Stats{MaxHP: 100, MaxWP: 10, Speed: 10}, Skills: []string{"bite"}})
	c.Skill = append(c.Skill, types.Skill{ID: "bite", Name: "Bite", Power: 7, Element: types.Slash, Cost: types.SkillCost{WP: 5}})
	c.Encounter[0].Enemies = []types.EncounterEnemy{
		{ID: "pack_member", EnemyID: "wolf", FormationPosition: types.Front},
		{ID: "pack_member", EnemyID: "hound", FormationPosition: types.Front},
	}

	b, _ := newTestBattle(t, loader.NewStore(c), fixed(0.5))
	require.Len(t, b.Enemies, 2)
	assert.Equal(t, "hound", b.Enemies[1].EnemyID)

	require.NoError(t, b.Start())
	log := b.Log()
	assert.Contains(t, log, "Wolf attacks Hero for 0 damage.")
	assert.Contains(t, log, "Hound uses Bite on Hero for 7 damage.")
	assert.Equal(t, 10, b.Enemies[0].WP)
	assert.Equal(t, 5, b.Enemies[1].WP)
}

// pickRand records Intn requests and always answers the last index.
type pickRand struct {
	*stubRand
	asked []int
}

func (r *pickRand) Intn(n int) int {
	r.asked = append(r.asked, n)
	return n - 1
}

func TestIntn_UsesStreamWhenAvailable(t *testing.T) {
	r := &pickRand{stubRand: fixed(0)}
	assert.Equal(t, 2, intn(r, 3))
	assert.Equal(t, []int{3}, r.asked)

	assert.Equal(t, 1, intn(fixed(0.5), 3))
	assert.Equal(t, 2, intn(fixed(0.9999), 3))
	assert.Equal(t, 0, intn(fixed(0), 3))
}
