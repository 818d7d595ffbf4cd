package combat

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/types"
)

var (
	ErrEncounterNotFound = errors.New("encounter not found")
	ErrInsufficientCost  = errors.New("insufficient cost")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrBattleOver        = errors.New("battle is over")
)

// Battle states.
const (
	StateIdle      = "idle"
	StateCommand   = "command"
	StateSkill     = "skill"
	StateItem      = "item"
	StateTarget    = "target"
	StateEnemyTurn = "enemyTurn"
	StateVictory   = "victory"
	StateDefeat    = "defeat"
	StateEscaped   = "escaped"
)

const (
	evCommand   = "command"
	evSkill     = "open_skills"
	evItem      = "open_items"
	evTarget    = "choose_target"
	evBack      = "back"
	evResolve   = "resolve"
	evEnemy     = "enemy_turn"
	evEnemyDone = "enemy_done"
	evWin       = "win"
	evLose      = "lose"
	evEscape    = "escape"
)

const (
	escapeChance   = 0.4
	enemySkillRate = 0.6
)

// Deps are the collaborators a battle reads and mutates.
type Deps struct {
	Store  *loader.Store
	State  *state.GameState
	Rand   Rand
	Logger *zap.Logger
}

// action is the choice being assembled in the command menus.
type action struct {
	kind  types.CommandType
	cmd   types.Command
	skill *types.Skill
	item  *types.Item
}

// Battle drives one encounter from setup to victory, defeat or escape.
// Player turns pause in the command, skill, item and target states until
// the caller selects; enemy turns resolve synchronously.
type Battle struct {
	deps      Deps
	rules     *Rules
	log       *zap.Logger
	encounter *types.Encounter
	party     *types.Party

	Allies  []*Combatant
	Enemies []*Combatant

	order   []*Combatant
	cursor  int
	current *Combatant
	members map[string]*types.PartyMember

	machine *fsm.FSM
	pending action
	lines   []string
	outcome *state.Outcome
	turns   int
}

// NewBattle sets up an encounter: it resolves the party, builds every
// combatant and fixes the turn order. Call Start to run to the first
// player decision.
func NewBattle(deps Deps, encounterID string) (*Battle, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	enc, ok := deps.Store.Encounter.Get(encounterID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEncounterNotFound, encounterID)
	}
	party, err := deps.State.EnsurePartyForEncounter(enc)
	if err != nil {
		return nil, err
	}

	b := &Battle{
		deps:      deps,
		log:       deps.Logger.Named("battle").With(zap.String("encounter", enc.ID)),
		encounter: enc,
		party:     party,
		members:   make(map[string]*types.PartyMember, len(party.Members)),
		rules: &Rules{
			Balance:    deps.Store.Balance,
			Formations: deps.Store.Formation,
			Rand:       deps.Rand,
		},
	}
	b.machine = newMachine(b.log)

	formation := deps.State.Formation()
	seating, _ := deps.Store.Formation.Get(formation)
	for i := range party.Members {
		m := &party.Members[i]
		b.members[m.ID] = m
		b.Allies = append(b.Allies, b.newAlly(m, formation, Seat(seating, i, m)))
	}
	for _, e := range enc.Enemies {
		c, ok := b.newEnemy(e)
		if !ok {
			continue
		}
		b.Enemies = append(b.Enemies, c)
	}
	disambiguate(b.Enemies)

	b.order = make([]*Combatant, 0, len(b.Allies)+len(b.Enemies))
	b.order = append(b.order, b.Allies...)
	b.order = append(b.order, b.Enemies...)
	sort.SliceStable(b.order, func(i, j int) bool {
		return b.order[i].FinalSpeed() > b.order[j].FinalSpeed()
	})
	b.cursor = -1

	b.log.Info("battle set up",
		zap.String("party", party.ID),
		zap.String("formation", formation),
		zap.Int("enemies", len(b.Enemies)))
	return b, nil
}

func newMachine(log *zap.Logger) *fsm.FSM {
	return fsm.NewFSM(StateIdle,
		fsm.Events{
			{Name: evCommand, Src: []string{StateIdle}, Dst: StateCommand},
			{Name: evSkill, Src: []string{StateCommand}, Dst: StateSkill},
			{Name: evItem, Src: []string{StateCommand}, Dst: StateItem},
			{Name: evTarget, Src: []string{StateCommand, StateSkill, StateItem}, Dst: StateTarget},
			{Name: evBack, Src: []string{StateSkill, StateItem, StateTarget}, Dst: StateCommand},
			{Name: evResolve, Src: []string{StateCommand, StateTarget}, Dst: StateIdle},
			{Name: evEnemy, Src: []string{StateIdle}, Dst: StateEnemyTurn},
			{Name: evEnemyDone, Src: []string{StateEnemyTurn}, Dst: StateIdle},
			{Name: evWin, Src: []string{StateIdle}, Dst: StateVictory},
			{Name: evLose, Src: []string{StateIdle}, Dst: StateDefeat},
			{Name: evEscape, Src: []string{StateCommand}, Dst: StateEscaped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug("battle state", zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
}

// Seat returns the row a member occupies: the formation's row for its
// index, else the member's own position, else the front.
func Seat(f *types.Formation, index int, m *types.PartyMember) types.Row {
	if f != nil && index < len(f.Rows) {
		return f.Rows[index]
	}
	if m.FormationPosition != "" {
		return m.FormationPosition
	}
	return types.Front
}

func (b *Battle) newAlly(m *types.PartyMember, formation string, seat types.Row) *Combatant {
	stats := m.Stats
	if w, ok := b.deps.Store.Weapon.Get(m.Equipment.Weapon); ok {
		stats.WeaponAttack += float64(w.Attack)
	} else if m.Equipment.Weapon != "" {
		b.log.Warn("unknown weapon", zap.String("member", m.ID), zap.String("weapon", m.Equipment.Weapon))
	}
	if a, ok := b.deps.Store.Armor.Get(m.Equipment.Armor); ok {
		stats.Defense += float64(a.Defense)
	} else if m.Equipment.Armor != "" {
		b.log.Warn("unknown armor", zap.String("member", m.ID), zap.String("armor", m.Equipment.Armor))
	}
	res := make(types.Resistances, len(m.Resistances))
	for k, v := range m.Resistances {
		res[k] = v
	}
	c := NewCombatant(m.ID, m.Name, stats, res, formation, seat, b.rules)
	c.Ally = true
	return c
}

func (b *Battle) newEnemy(e types.EncounterEnemy) (*Combatant, bool) {
	def, ok := b.deps.Store.Enemy.Get(e.EnemyID)
	if !ok {
		b.log.Warn("unknown enemy skipped", zap.String("enemy", e.EnemyID))
		return nil, false
	}
	stats := mergeStats(def.Stats, e.Stats)
	res := make(types.Resistances, len(def.Resistances)+len(e.Resistances))
	for k, v := range def.Resistances {
		res[k] = v
	}
	for k, v := range e.Resistances {
		res[k] = v
	}
	c := NewCombatant(e.ID, def.Name, stats, res, "", e.FormationPosition, b.rules)
	c.EnemyID = def.ID
	return c, true
}

func mergeStats(base types.Stats, o *types.StatOverrides) types.Stats {
	if o == nil {
		return base
	}
	setI := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setI(&base.MaxHP, o.MaxHP)
	setI(&base.MaxLP, o.MaxLP)
	setI(&base.MaxWP, o.MaxWP)
	setI(&base.MaxJP, o.MaxJP)
	setF(&base.Speed, o.Speed)
	setF(&base.WeaponAttack, o.WeaponAttack)
	setF(&base.Strength, o.Strength)
	setF(&base.Defense, o.Defense)
	setF(&base.StaffCorrection, o.StaffCorrection)
	setF(&base.Intelligence, o.Intelligence)
	setF(&base.MagicDefense, o.MagicDefense)
	setF(&base.Dexterity, o.Dexterity)
	setF(&base.Agility, o.Agility)
	setF(&base.CriticalChance, o.CriticalChance)
	return base
}

// disambiguate suffixes repeated enemy names with A, B, C.
func disambiguate(cs []*Combatant) {
	count := map[string]int{}
	for _, c := range cs {
		count[c.Name]++
	}
	seen := map[string]int{}
	for _, c := range cs {
		if count[c.Name] < 2 {
			continue
		}
		n := seen[c.Name]
		seen[c.Name]++
		c.Name = fmt.Sprintf("%s %c", c.Name, 'A'+n)
	}
}

// Start announces the encounter and runs turns until a player decision
// or the end of the battle.
func (b *Battle) Start() error {
	b.say("%s appears!", b.encounter.Name)
	return b.nextTurn()
}

// State returns the current battle state.
func (b *Battle) State() string { return b.machine.Current() }

// Over reports whether the battle reached victory, defeat or escape.
func (b *Battle) Over() bool {
	switch b.machine.Current() {
	case StateVictory, StateDefeat, StateEscaped:
		return true
	}
	return false
}

// Encounter returns the encounter being fought.
func (b *Battle) Encounter() *types.Encounter { return b.encounter }

// Current returns the combatant whose turn it is.
func (b *Battle) Current() *Combatant { return b.current }

// Turns counts the turns taken so far.
func (b *Battle) Turns() int { return b.turns }

// Outcome returns the recorded victory outcome, or nil.
func (b *Battle) Outcome() *state.Outcome { return b.outcome }

// Log returns the battle log and clears it.
func (b *Battle) Log() []string {
	out := b.lines
	b.lines = nil
	return out
}

// End discards per-encounter combatant state.
func (b *Battle) End() {
	for _, c := range b.order {
		c.Reset()
	}
	b.log.Info("battle ended", zap.String("state", b.State()), zap.Int("turns", b.turns))
}

func (b *Battle) say(format string, args ...any) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func (b *Battle) fire(event string) error {
	if err := b.machine.Event(context.Background(), event); err != nil {
		return fmt.Errorf("battle %s in %s: %w", event, b.machine.Current(), err)
	}
	return nil
}

func living(cs []*Combatant) []*Combatant {
	out := make([]*Combatant, 0, len(cs))
	for _, c := range cs {
		if c.Alive() {
			out = append(out, c)
		}
	}
	return out
}

// nextTurn advances the turn cursor until an ally needs a decision or the
// battle ends. Enemy, stunned and confused turns resolve in place.
func (b *Battle) nextTurn() error {
	for {
		if len(living(b.Enemies)) == 0 {
			return b.win()
		}
		if len(living(b.Allies)) == 0 {
			b.say("The party has fallen.")
			return b.fire(evLose)
		}

		b.cursor = (b.cursor + 1) % len(b.order)
		c := b.order[b.cursor]
		if !c.Alive() {
			continue
		}
		b.current = c
		b.turns++
		c.Guarding = false

		for _, t := range c.UpdateStatusEffects() {
			if t.Damage > 0 {
				b.say("%s takes %d damage from %s.", c.Name, t.Damage, t.Name)
			}
			if t.Revived {
				b.say("%s clings to life!", c.Name)
			}
			if t.Expired {
				b.say("%s is no longer affected by %s.", c.Name, t.Name)
			}
		}
		if !c.Alive() {
			b.say("%s is defeated.", c.Name)
			continue
		}
		if !c.CanAct() {
			b.say("%s cannot act.", c.Name)
			continue
		}
		if c.IsConfused() {
			b.confusedAttack(c)
			continue
		}

		if c.Ally {
			b.pending = action{}
			return b.fire(evCommand)
		}
		if err := b.fire(evEnemy); err != nil {
			return err
		}
		b.enemyTurn(c)
		if err := b.fire(evEnemyDone); err != nil {
			return err
		}
	}
}

func (b *Battle) confusedAttack(c *Combatant) {
	var pool []*Combatant
	for _, o := range b.order {
		if o != c && o.Alive() {
			pool = append(pool, o)
		}
	}
	if len(pool) == 0 {
		return
	}
	target := pool[intn(b.deps.Rand, len(pool))]
	b.say("%s is confused!", c.Name)
	b.strike(c, target, "attacks", 0, types.Physical, types.Slash, nil)
}

// win rolls loot, records the outcome into game state and ends the battle.
func (b *Battle) win() error {
	rewards := b.encounter.Rewards
	rewards.Items = mergeItems(rewards.Items, b.rollLoot())
	if err := b.deps.State.RecordEncounterOutcome(b.encounter.ID, rewards, b.encounter.QuestProgress); err != nil {
		b.log.Error("record outcome", zap.Error(err))
		return err
	}
	b.outcome = &state.Outcome{
		EncounterID:   b.encounter.ID,
		Rewards:       rewards,
		QuestProgress: b.encounter.QuestProgress,
	}
	b.say("Victory!")
	return b.fire(evWin)
}

func (b *Battle) rollLoot() []types.ItemQuantity {
	var drops []types.ItemQuantity
	for _, id := range b.encounter.Rewards.LootTables {
		lt, ok := b.deps.Store.LootTable.Get(id)
		if !ok {
			b.log.Warn("unknown loot table skipped", zap.String("loot_table", id))
			continue
		}
		for _, e := range lt.Entries {
			if b.deps.Rand.Float64() < e.Chance {
				drops = append(drops, types.ItemQuantity{ID: e.ItemID, Quantity: e.Quantity})
			}
		}
	}
	return drops
}

// mergeItems sums quantities by id, keeping first-seen order.
func mergeItems(lists ...[]types.ItemQuantity) []types.ItemQuantity {
	var out []types.ItemQuantity
	idx := map[string]int{}
	for _, l := range lists {
		for _, it := range l {
			if i, ok := idx[it.ID]; ok {
				out[i].Quantity += it.Quantity
				continue
			}
			idx[it.ID] = len(out)
			out = append(out, it)
		}
	}
	return out
}

// intner is a stream that draws bounded integers itself.
type intner interface {
	Intn(n int) int
}

// intn picks an index in [0, n) from a single uniform draw.
func intn(r Rand, n int) int {
	if in, ok := r.(intner); ok {
		return in.Intn(n)
	}
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
