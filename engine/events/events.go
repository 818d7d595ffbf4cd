// Package events dispatches tile events from the field map: conversations,
// treasure and gathering points, with one-shot and cooldown bookkeeping.
package events

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/dialogue"
	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/types"
)

// Sink receives the user-facing log lines effects produce.
type Sink interface {
	Log(msg string)
}

// Result describes what a trigger did.
type Result int

const (
	// Ignored means no entry is bound to the tile-event id.
	Ignored Result = iota
	// Refused means the entry is spent or cooling down.
	Refused
	// Conversation means a conversation started; its effects run when it ends.
	Conversation
	// Applied means the entry's effects ran immediately.
	Applied
	// Failed means the entry referenced missing content.
	Failed
)

// Manager tracks which tile events are spent or cooling down.
type Manager struct {
	store    *loader.Store
	state    *state.GameState
	dialogue *dialogue.Engine
	sink     Sink
	log      *zap.Logger

	// Now is the clock used for cooldowns.
	Now func() time.Time

	completed map[int]bool
	cooldowns map[int]time.Time
}

func New(store *loader.Store, gs *state.GameState, dlg *dialogue.Engine, sink Sink, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:     store,
		state:     gs,
		dialogue:  dlg,
		sink:      sink,
		log:       logger.Named("events"),
		Now:       time.Now,
		completed: map[int]bool{},
		cooldowns: map[int]time.Time{},
	}
}

// Trigger runs the entry bound to a tile-event id.
func (m *Manager) Trigger(tileEventID int) Result {
	entry, ok := m.store.EventMap.ByTileEventID[tileEventID]
	if !ok {
		return Ignored
	}
	log := m.log.With(zap.Int("tile_event", tileEventID), zap.String("entry", entry.ID))

	if !m.available(tileEventID, entry) {
		if entry.Label != "" {
			m.emit(fmt.Sprintf("%s does not respond yet.", entry.Label))
		}
		log.Debug("event refused")
		return Refused
	}

	switch entry.Type {
	case types.MapConversation:
		err := m.dialogue.Start(entry.ConversationID, func() {
			m.Apply(entry.Effects)
			m.markTriggered(tileEventID, entry)
		})
		if err != nil {
			log.Warn("conversation skipped", zap.Error(err))
			return Failed
		}
		log.Debug("conversation started", zap.String("event", entry.ConversationID))
		return Conversation
	case types.MapTreasure, types.MapGathering:
		m.Apply(entry.Effects)
		m.markTriggered(tileEventID, entry)
		log.Debug("event applied")
		return Applied
	}
	log.Warn("unknown event type", zap.String("type", string(entry.Type)))
	return Failed
}

func (m *Manager) available(id int, entry *types.EventMapEntry) bool {
	if !entry.IsRepeatable() && m.completed[id] {
		return false
	}
	if expiry, ok := m.cooldowns[id]; ok {
		if m.Now().Before(expiry) {
			return false
		}
		delete(m.cooldowns, id)
	}
	return true
}

func (m *Manager) markTriggered(id int, entry *types.EventMapEntry) {
	switch {
	case !entry.IsRepeatable():
		m.completed[id] = true
	case entry.CooldownMs > 0:
		m.cooldowns[id] = m.Now().Add(time.Duration(entry.CooldownMs) * time.Millisecond)
	}
}

// Apply runs inline effects against game state.
func (m *Manager) Apply(effects []types.MapEffect) {
	for _, e := range effects {
		switch b := e.Body.(type) {
		case *types.LogEffect:
			m.emit(b.Message)
		case *types.GiveItemEffect:
			m.state.GrantItem(b.ItemID, b.Quantity)
			m.emit(fmt.Sprintf("Obtained %s x%d.", m.store.ItemName(b.ItemID), b.Quantity))
		case *types.SetFlagEffect:
			m.state.SetFlag(b.FlagID, b.Value)
		case *types.QuestUpdateEffect:
			m.state.UpdateQuest(b.QuestID, b.State)
			name := b.QuestID
			if q, ok := m.store.Quest.Get(b.QuestID); ok {
				name = q.Name
			}
			m.emit(fmt.Sprintf("Quest %s: %s.", name, b.State))
		default:
			m.log.Warn("unknown effect skipped")
		}
	}
}

// Reset forgets every spent and cooling event.
func (m *Manager) Reset() {
	clear(m.completed)
	clear(m.cooldowns)
}

func (m *Manager) emit(msg string) {
	if m.sink != nil {
		m.sink.Log(msg)
	}
}
