// Package state holds the process-wide game state: active party,
// experience, gold, inventory, quest states, flags, and the single-slot
// encounter outcome handed from combat to the result scene.
package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/types"
)

var (
	// ErrNoPartyAvailable is returned when an encounter has no party to field.
	ErrNoPartyAvailable = errors.New("no party available")
	// ErrOutcomePending is returned when an outcome is recorded while a
	// previous one has not been consumed.
	ErrOutcomePending = errors.New("encounter outcome already pending")
)

// Outcome is the result of a won encounter, consumed once by the result
// scene. Rewards.Items already includes rolled loot.
type Outcome struct {
	EncounterID   string
	Rewards       types.Rewards
	QuestProgress []types.QuestProgress
}

// GameState lives for the whole process and is mutated only from the
// game loop.
type GameState struct {
	store *loader.Store

	activePartyID string
	formation     string

	Experience int
	Gold       int
	// Region and ER are matched by conversation guards.
	Region string
	ER     int

	inventory map[string]int
	quests    map[string]string
	flags     map[string]bool
	pending   *Outcome
}

// New creates an initialized game state backed by the content store.
func New(store *loader.Store) *GameState {
	g := &GameState{store: store}
	g.Initialize()
	return g
}

// Initialize zeroes every counter, clears all maps and selects the first
// known party.
func (g *GameState) Initialize() {
	g.Experience = 0
	g.Gold = 0
	g.ER = 1
	g.inventory = map[string]int{}
	g.quests = map[string]string{}
	g.flags = map[string]bool{}
	g.pending = nil
	g.formation = ""
	g.activePartyID = ""
	if g.store != nil && len(g.store.Party.All) > 0 {
		g.activePartyID = g.store.Party.All[0].ID
	}
}

// SetActiveParty installs a party by id. Unknown ids are kept and surface
// as ErrNoPartyAvailable on the next encounter.
func (g *GameState) SetActiveParty(id string) {
	g.activePartyID = id
}

// ActiveParty returns the active party definition.
func (g *GameState) ActiveParty() (*types.Party, bool) {
	if g.activePartyID == "" || g.store == nil {
		return nil, false
	}
	return g.store.Party.Get(g.activePartyID)
}

// EnsurePartyForEncounter installs the encounter's party when it names
// one and returns the active party.
func (g *GameState) EnsurePartyForEncounter(enc *types.Encounter) (*types.Party, error) {
	if enc.PlayerPartyID != "" {
		g.activePartyID = enc.PlayerPartyID
	}
	p, ok := g.ActiveParty()
	if !ok {
		return nil, fmt.Errorf("encounter %s: %w", enc.ID, ErrNoPartyAvailable)
	}
	return p, nil
}

// HasMember reports whether the active party has a member with this id.
func (g *GameState) HasMember(id string) bool {
	p, ok := g.ActiveParty()
	if !ok {
		return false
	}
	for _, m := range p.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// SetFormation overrides the active party's formation. An empty id
// restores the party default.
func (g *GameState) SetFormation(id string) {
	g.formation = id
}

// Formation returns the formation combat should use: the override when
// set, otherwise the active party's own.
func (g *GameState) Formation() string {
	if g.formation != "" {
		return g.formation
	}
	if p, ok := g.ActiveParty(); ok {
		return p.Formation
	}
	return ""
}

// RecordEncounterOutcome stores the pending outcome. Recording twice
// without an intervening consume returns ErrOutcomePending.
func (g *GameState) RecordEncounterOutcome(encounterID string, rewards types.Rewards, progress []types.QuestProgress) error {
	if g.pending != nil {
		return fmt.Errorf("record %s over %s: %w", encounterID, g.pending.EncounterID, ErrOutcomePending)
	}
	g.pending = &Outcome{
		EncounterID:   encounterID,
		Rewards:       rewards,
		QuestProgress: progress,
	}
	return nil
}

// ConsumeEncounterOutcome returns the pending outcome and clears it.
// It returns nil when nothing is pending.
func (g *GameState) ConsumeEncounterOutcome() *Outcome {
	o := g.pending
	g.pending = nil
	return o
}

// HasPendingOutcome reports whether an outcome awaits consumption.
func (g *GameState) HasPendingOutcome() bool {
	return g.pending != nil
}

// ApplyOutcome adds experience and gold, merges reward items into the
// inventory and writes each quest state.
func (g *GameState) ApplyOutcome(o *Outcome) {
	if o == nil {
		return
	}
	g.Experience += o.Rewards.Experience
	g.Gold += o.Rewards.Gold
	for _, it := range o.Rewards.Items {
		g.GrantItem(it.ID, it.Quantity)
	}
	for _, qp := range o.QuestProgress {
		g.UpdateQuest(qp.QuestID, qp.State)
	}
}

func (g *GameState) SetFlag(name string, value bool) { g.flags[name] = value }

// Flag returns a flag value. Unset flags are false.
func (g *GameState) Flag(name string) bool { return g.flags[name] }

// GrantItem adds quantity of an item to the inventory.
func (g *GameState) GrantItem(id string, quantity int) {
	g.inventory[id] += quantity
}

// ItemQuantity returns how many of an item the party holds.
func (g *GameState) ItemQuantity(id string) int { return g.inventory[id] }

// ConsumeItem removes one item. It reports false when none is held.
func (g *GameState) ConsumeItem(id string) bool {
	if g.inventory[id] <= 0 {
		return false
	}
	g.inventory[id]--
	if g.inventory[id] == 0 {
		delete(g.inventory, id)
	}
	return true
}

func (g *GameState) UpdateQuest(id, state string) { g.quests[id] = state }

// QuestState returns the quest state and whether one is recorded.
func (g *GameState) QuestState(id string) (string, bool) {
	s, ok := g.quests[id]
	return s, ok
}

// Entry is one id/value pair of a sorted listing.
type Entry[V any] struct {
	ID    string
	Value V
}

// Inventory lists held items sorted by id.
func (g *GameState) Inventory() []Entry[int] {
	return sorted(g.inventory)
}

// Quests lists quest states sorted by quest id.
func (g *GameState) Quests() []Entry[string] {
	return sorted(g.quests)
}

func sorted[V any](m map[string]V) []Entry[V] {
	out := make([]Entry[V], 0, len(m))
	for id, v := range m {
		out = append(out, Entry[V]{ID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
