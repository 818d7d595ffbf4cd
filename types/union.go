package types

import (
	"encoding/json"
	"fmt"
)

// NodeType discriminates conversation nodes.
type NodeType string

const (
	NodeDialog      NodeType = "dialog"
	NodeChoice      NodeType = "choice"
	NodeSetFlag     NodeType = "set_flag"
	NodeGoto        NodeType = "goto"
	NodeQuestStart  NodeType = "quest_start"
	NodeQuestUpdate NodeType = "quest_update"
	NodeBattle      NodeType = "battle"
	NodeReward      NodeType = "reward"
)

// NodeBody is implemented by every conversation node variant.
type NodeBody interface {
	NodeType() NodeType
}

// Node is one vertex of a conversation graph.
type Node struct {
	ID   string   `json:"id" validate:"omitempty,contentid"`
	When *Guard   `json:"when,omitempty"`
	Body NodeBody `json:"-" validate:"required"`
}

type DialogNode struct {
	Text string  `json:"text" validate:"required"`
	Next *string `json:"next"`
}

type Choice struct {
	Text string `json:"text" validate:"required"`
	Next string `json:"next" validate:"required"`
}

type ChoiceNode struct {
	Choices []Choice `json:"choices" validate:"min=1,dive"`
}

type SetFlagNode struct {
	Flag  string  `json:"flag" validate:"required"`
	Value bool    `json:"value"`
	Next  *string `json:"next"`
}

type GotoNode struct {
	Target string `json:"target" validate:"required"`
}

type QuestStartNode struct {
	QuestID string  `json:"quest_id" validate:"contentid"`
	Next    *string `json:"next"`
}

type QuestUpdateNode struct {
	QuestID    string  `json:"quest_id" validate:"contentid"`
	QuestState string  `json:"quest_state" validate:"required"`
	Next       *string `json:"next"`
}

type BattleNode struct {
	EncounterID string  `json:"encounter_id" validate:"contentid"`
	OnWin       *string `json:"on_win"`
	OnLose      *string `json:"on_lose"`
}

type RewardNode struct {
	ItemID   string  `json:"item_id" validate:"contentid"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Next     *string `json:"next"`
}

func (DialogNode) NodeType() NodeType      { return NodeDialog }
func (ChoiceNode) NodeType() NodeType      { return NodeChoice }
func (SetFlagNode) NodeType() NodeType     { return NodeSetFlag }
func (GotoNode) NodeType() NodeType        { return NodeGoto }
func (QuestStartNode) NodeType() NodeType  { return NodeQuestStart }
func (QuestUpdateNode) NodeType() NodeType { return NodeQuestUpdate }
func (BattleNode) NodeType() NodeType      { return NodeBattle }
func (RewardNode) NodeType() NodeType      { return NodeReward }

func (n *Node) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string   `json:"id"`
		Type NodeType `json:"type"`
		When *Guard   `json:"when"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	var body NodeBody
	switch head.Type {
	case NodeDialog:
		body = &DialogNode{}
	case NodeChoice:
		body = &ChoiceNode{}
	case NodeSetFlag:
		body = &SetFlagNode{}
	case NodeGoto:
		body = &GotoNode{}
	case NodeQuestStart:
		body = &QuestStartNode{}
	case NodeQuestUpdate:
		body = &QuestUpdateNode{}
	case NodeBattle:
		body = &BattleNode{}
	case NodeReward:
		body = &RewardNode{}
	default:
		return fmt.Errorf("node %q: unknown type %q", head.ID, head.Type)
	}
	if err := json.Unmarshal(data, body); err != nil {
		return fmt.Errorf("node %q: %w", head.ID, err)
	}

	n.ID = head.ID
	n.When = head.When
	n.Body = body
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(n.Body)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	if n.ID != "" {
		fields["id"] = n.ID
	}
	if n.When != nil {
		fields["when"] = n.When
	}
	if n.Body != nil {
		fields["type"] = n.Body.NodeType()
	}
	return json.Marshal(fields)
}

// MapEffectType discriminates inline event-map effects.
type MapEffectType string

const (
	EffectLog         MapEffectType = "log"
	EffectGiveItem    MapEffectType = "give_item"
	EffectSetFlag     MapEffectType = "set_flag"
	EffectQuestUpdate MapEffectType = "quest_update"
)

// MapEffectBody is implemented by every inline effect variant.
type MapEffectBody interface {
	EffectType() MapEffectType
}

// MapEffect wraps one inline effect of an event-map entry.
type MapEffect struct {
	Body MapEffectBody `json:"-" validate:"required"`
}

type LogEffect struct {
	Message string `json:"message" validate:"required"`
}

type GiveItemEffect struct {
	ItemID   string `json:"itemId" validate:"contentid"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type SetFlagEffect struct {
	FlagID string `json:"flagId" validate:"required"`
	Value  bool   `json:"value"`
}

type QuestUpdateEffect struct {
	QuestID string `json:"questId" validate:"contentid"`
	State   string `json:"state" validate:"required"`
}

func (LogEffect) EffectType() MapEffectType         { return EffectLog }
func (GiveItemEffect) EffectType() MapEffectType    { return EffectGiveItem }
func (SetFlagEffect) EffectType() MapEffectType     { return EffectSetFlag }
func (QuestUpdateEffect) EffectType() MapEffectType { return EffectQuestUpdate }

func (e *MapEffect) UnmarshalJSON(data []byte) error {
	var head struct {
		Type MapEffectType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	var body MapEffectBody
	switch head.Type {
	case EffectLog:
		body = &LogEffect{}
	case EffectGiveItem:
		body = &GiveItemEffect{}
	case EffectSetFlag:
		body = &SetFlagEffect{}
	case EffectQuestUpdate:
		body = &QuestUpdateEffect{}
	default:
		return fmt.Errorf("unknown effect type %q", head.Type)
	}
	if err := json.Unmarshal(data, body); err != nil {
		return err
	}
	e.Body = body
	return nil
}

// MapEventType discriminates event-map entries.
type MapEventType string

const (
	MapConversation MapEventType = "conversation"
	MapTreasure     MapEventType = "treasure"
	MapGathering    MapEventType = "gathering"
)

// EventMapEntry binds a tile-event id to a declarative action.
// ConversationID is required for conversation entries and ignored otherwise.
type EventMapEntry struct {
	ID             string       `json:"id" validate:"contentid"`
	TileEventID    int          `json:"tileEventId" validate:"gt=0"`
	Label          string       `json:"label,omitempty"`
	Repeatable     *bool        `json:"repeatable,omitempty"`
	CooldownMs     int          `json:"cooldownMs,omitempty" validate:"gte=0"`
	Effects        []MapEffect  `json:"effects,omitempty" validate:"dive"`
	Type           MapEventType `json:"type" validate:"oneof=conversation treasure gathering"`
	ConversationID string       `json:"conversationId,omitempty" validate:"omitempty,contentid"`
}

// IsRepeatable reports the repeatable flag, which defaults to true.
func (e EventMapEntry) IsRepeatable() bool {
	return e.Repeatable == nil || *e.Repeatable
}
