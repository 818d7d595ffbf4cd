// Package ui is the rendering surface the scenes write to. Regions are
// addressed by fixed ids; hosts read them back to draw.
package ui

import (
	"slices"

	"go.uber.org/zap"
)

// Region ids.
const (
	BattleScene         = "battle-scene"
	BattleLog           = "battle-log-container"
	PlayerStatus        = "player-status"
	EnemyStatus         = "enemy-status"
	CommandMenu         = "command-menu"
	SkillMenu           = "skill-menu"
	TargetMenu          = "target-menu"
	ResultScene         = "result-scene"
	ExpGained           = "exp-gained"
	GoldGained          = "gold-gained"
	LootList            = "loot-list"
	QuestProgressList   = "quest-progress-list"
	FieldScene          = "field-scene"
	DialogBox           = "dialog-box"
	DialogText          = "dialog-text"
	ChoiceList          = "choice-list"
	ConversationOverlay = "conversation-overlay"
	Header              = "ui-header"
	Main                = "ui-main"
	Footer              = "ui-footer"
	LogPane             = "log-pane"
	HelpDisplay         = "help-display"
	TouchControls       = "touch-controls"
)

// RegionIDs lists every region id in layout order.
func RegionIDs() []string {
	return []string{
		Header, Main, FieldScene, ConversationOverlay, DialogBox, DialogText, ChoiceList,
		BattleScene, EnemyStatus, PlayerStatus, CommandMenu, SkillMenu, TargetMenu, BattleLog,
		ResultScene, ExpGained, GoldGained, LootList, QuestProgressList,
		LogPane, Footer, HelpDisplay, TouchControls,
	}
}

// Surface is what scenes draw on. Writes to a region the surface does not
// have are dropped with a warning.
type Surface interface {
	SetText(id string, lines ...string)
	SetList(id string, items []string, selected int)
	Show(id string, visible bool)
	Clear(id string)
	Log(msg string)
}

// Region is a snapshot of one region's content.
type Region struct {
	ID       string
	Lines    []string
	Selected int
	Hidden   bool
}

// logCap bounds the log pane.
const logCap = 50

// Board is an in-memory Surface. Hosts poll Changed after each frame and
// redraw the regions it names.
type Board struct {
	log     *zap.Logger
	order   []string
	regions map[string]*Region
	history *History
	dirty   map[string]bool
	warned  map[string]bool
	logged  int
}

// NewBoard creates a board with the given regions, or every known region
// when none are named. Regions start hidden and empty.
func NewBoard(logger *zap.Logger, ids ...string) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(ids) == 0 {
		ids = RegionIDs()
	}
	b := &Board{
		log:     logger.Named("ui"),
		order:   ids,
		regions: make(map[string]*Region, len(ids)),
		history: NewHistory(logCap),
		dirty:   map[string]bool{},
		warned:  map[string]bool{},
	}
	for _, id := range ids {
		b.regions[id] = &Region{ID: id, Selected: -1, Hidden: true}
	}
	if r, ok := b.regions[LogPane]; ok {
		r.Hidden = false
	}
	return b
}

func (b *Board) region(id string) (*Region, bool) {
	r, ok := b.regions[id]
	if !ok {
		if !b.warned[id] {
			b.warned[id] = true
			b.log.Warn("region missing", zap.String("region", id))
		}
		return nil, false
	}
	b.dirty[id] = true
	return r, true
}

func (b *Board) SetText(id string, lines ...string) {
	if r, ok := b.region(id); ok {
		r.Lines = slices.Clone(lines)
		r.Selected = -1
	}
}

// SetList fills a region with menu entries. selected is the highlighted
// index, or -1 for none.
func (b *Board) SetList(id string, items []string, selected int) {
	if r, ok := b.region(id); ok {
		r.Lines = slices.Clone(items)
		r.Selected = selected
	}
}

func (b *Board) Show(id string, visible bool) {
	if r, ok := b.region(id); ok {
		r.Hidden = !visible
	}
}

func (b *Board) Clear(id string) {
	if r, ok := b.region(id); ok {
		r.Lines = nil
		r.Selected = -1
	}
}

// Log appends a line to the log pane, dropping the oldest past its cap.
func (b *Board) Log(msg string) {
	r, ok := b.region(LogPane)
	if !ok {
		return
	}
	b.history.Push(msg)
	b.logged++
	r.Lines = b.history.Lines()
}

// Logged counts every line logged since the board was created or reset,
// including lines the cap has dropped.
func (b *Board) Logged() int { return b.logged }

// Region returns a copy of a region.
func (b *Board) Region(id string) (Region, bool) {
	r, ok := b.regions[id]
	if !ok {
		return Region{}, false
	}
	out := *r
	out.Lines = slices.Clone(r.Lines)
	return out, true
}

// Text returns a region's lines, or nil when it is missing.
func (b *Board) Text(id string) []string {
	r, _ := b.Region(id)
	return r.Lines
}

// Visible reports whether a region exists and is shown.
func (b *Board) Visible(id string) bool {
	r, ok := b.regions[id]
	return ok && !r.Hidden
}

// Changed returns the ids written since the last call, in layout order.
func (b *Board) Changed() []string {
	var out []string
	for _, id := range b.order {
		if b.dirty[id] {
			out = append(out, id)
		}
	}
	clear(b.dirty)
	return out
}

// Reset empties and hides every region and forgets the log.
func (b *Board) Reset() {
	for _, r := range b.regions {
		r.Lines = nil
		r.Selected = -1
		r.Hidden = r.ID != LogPane
		b.dirty[r.ID] = true
	}
	b.history.Reset()
	b.logged = 0
}
