// Package dialogue runs conversation graphs.
//
// A conversation starts at the event's first node. Nodes that only mutate
// game state run and advance on their own; the engine stops on dialog and
// choice nodes to wait for the player, and on battle nodes to wait for
// the battle's result.
package dialogue

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/types"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotWaiting    = errors.New("conversation is not waiting for that input")
)

// maxSteps bounds automatic advancement so a goto cycle cannot hang a frame.
const maxSteps = 256

// Engine holds at most one active conversation.
type Engine struct {
	store *loader.Store
	state *state.GameState
	log   *zap.Logger

	event      *types.Event
	node       *types.Node
	onComplete func()
	battle     *types.BattleNode
}

func New(store *loader.Store, gs *state.GameState, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, state: gs, log: logger.Named("dialogue")}
}

// Start begins an event. onComplete, if set, runs once when the
// conversation ends. Starting replaces any active conversation without
// completing it.
func (e *Engine) Start(eventID string, onComplete func()) error {
	ev, ok := e.store.Event.Get(eventID)
	if !ok || len(ev.Nodes) == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	e.event = ev
	e.onComplete = onComplete
	e.battle = nil
	e.log.Debug("conversation started", zap.String("event", ev.ID))
	e.enter(&ev.Nodes[0])
	return nil
}

// Active reports whether a conversation is running.
func (e *Engine) Active() bool { return e.event != nil }

// EventID returns the active event id, or "".
func (e *Engine) EventID() string {
	if e.event == nil {
		return ""
	}
	return e.event.ID
}

// Node returns the node waiting for input, or nil.
func (e *Engine) Node() *types.Node { return e.node }

// Dialog returns the current dialog node.
func (e *Engine) Dialog() (*types.DialogNode, bool) {
	if e.node == nil {
		return nil, false
	}
	d, ok := e.node.Body.(*types.DialogNode)
	return d, ok
}

// Choices returns the current choice node's options.
func (e *Engine) Choices() ([]types.Choice, bool) {
	if e.node == nil {
		return nil, false
	}
	c, ok := e.node.Body.(*types.ChoiceNode)
	if !ok {
		return nil, false
	}
	return c.Choices, true
}

// PendingBattle returns the encounter a battle node is waiting on.
func (e *Engine) PendingBattle() (string, bool) {
	if e.battle == nil {
		return "", false
	}
	return e.battle.EncounterID, true
}

// Next advances past the current dialog node. On any other node it ends
// the conversation.
func (e *Engine) Next() {
	if e.node == nil {
		return
	}
	if e.battle != nil {
		return
	}
	e.follow(successor(e.node))
}

// Choose follows the i-th option of the current choice node.
func (e *Engine) Choose(i int) error {
	choices, ok := e.Choices()
	if !ok {
		return fmt.Errorf("%w: not at a choice", ErrNotWaiting)
	}
	if i < 0 || i >= len(choices) {
		return fmt.Errorf("%w: choice %d of %d", ErrNotWaiting, i, len(choices))
	}
	next := choices[i].Next
	e.follow(&next)
	return nil
}

// ResolveBattle resumes a conversation suspended on a battle node at
// on_win or on_lose.
func (e *Engine) ResolveBattle(won bool) error {
	if e.battle == nil {
		return fmt.Errorf("%w: no battle pending", ErrNotWaiting)
	}
	b := e.battle
	e.battle = nil
	e.log.Debug("battle resolved", zap.String("encounter", b.EncounterID), zap.Bool("won", won))
	if won {
		e.follow(b.OnWin)
	} else {
		e.follow(b.OnLose)
	}
	return nil
}

// Abort drops the active conversation without running onComplete.
func (e *Engine) Abort() {
	e.event, e.node, e.onComplete, e.battle = nil, nil, nil, nil
}

// successor is the node's own next pointer. Choice, goto and battle
// nodes have none.
func successor(n *types.Node) *string {
	switch b := n.Body.(type) {
	case *types.DialogNode:
		return b.Next
	case *types.SetFlagNode:
		return b.Next
	case *types.QuestStartNode:
		return b.Next
	case *types.QuestUpdateNode:
		return b.Next
	case *types.RewardNode:
		return b.Next
	}
	return nil
}

func (e *Engine) find(id string) *types.Node {
	for i := range e.event.Nodes {
		if e.event.Nodes[i].ID == id {
			return &e.event.Nodes[i]
		}
	}
	return nil
}

func (e *Engine) follow(id *string) {
	if n := e.resolve(id); n != nil {
		e.enter(n)
	}
}

// enter runs nodes until one waits for input or the conversation ends.
func (e *Engine) enter(n *types.Node) {
	for step := 0; n != nil; step++ {
		if step == maxSteps {
			e.log.Error("conversation did not settle", zap.String("event", e.event.ID), zap.String("node", n.ID))
			e.end()
			return
		}
		if n.When != nil && !e.guard(n.When) {
			n = e.resolve(successor(n))
			continue
		}

		var next *string
		switch b := n.Body.(type) {
		case *types.DialogNode, *types.ChoiceNode:
			e.node = n
			return
		case *types.BattleNode:
			e.node = n
			e.battle = b
			return
		case *types.SetFlagNode:
			e.state.SetFlag(b.Flag, b.Value)
			next = b.Next
		case *types.QuestStartNode:
			e.state.UpdateQuest(b.QuestID, types.QuestStarted)
			next = b.Next
		case *types.QuestUpdateNode:
			e.state.UpdateQuest(b.QuestID, b.QuestState)
			next = b.Next
		case *types.RewardNode:
			e.state.GrantItem(b.ItemID, b.Quantity)
			next = b.Next
		case *types.GotoNode:
			next = &b.Target
		}
		n = e.resolve(next)
	}
}

// resolve maps a successor id to its node. It ends the conversation and
// returns nil when there is no successor.
func (e *Engine) resolve(id *string) *types.Node {
	if id == nil || *id == "" {
		e.end()
		return nil
	}
	n := e.find(*id)
	if n == nil {
		e.log.Warn("unknown node, ending conversation", zap.String("event", e.event.ID), zap.String("node", *id))
		e.end()
	}
	return n
}

// guard reports whether every set field of g matches the game state.
func (e *Engine) guard(g *types.Guard) bool {
	gs := e.state
	if g.Region != "" && g.Region != gs.Region {
		return false
	}
	if g.ERGte != nil && gs.ER < *g.ERGte {
		return false
	}
	for _, f := range g.FlagsHas {
		if !gs.Flag(f) {
			return false
		}
	}
	for _, m := range g.PartyHas {
		if !gs.HasMember(m) {
			return false
		}
	}
	if g.ItemHas != nil && gs.ItemQuantity(g.ItemHas.ID) < g.ItemHas.Quantity {
		return false
	}
	return true
}

func (e *Engine) end() {
	if e.event != nil {
		e.log.Debug("conversation ended", zap.String("event", e.event.ID))
	}
	done := e.onComplete
	e.Abort()
	if done != nil {
		done()
	}
}
