package loader

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/nathoo/sparksaga/types"
)

// Table indexes an array-shaped content file.
type Table[T any] struct {
	ByID map[string]*T
	All  []T
}

func newTable[T any](items []T, id func(*T) string) Table[T] {
	t := Table[T]{ByID: make(map[string]*T, len(items)), All: items}
	for i := range t.All {
		t.ByID[id(&t.All[i])] = &t.All[i]
	}
	return t
}

// Get returns the record with the given id.
func (t Table[T]) Get(id string) (*T, bool) {
	v, ok := t.ByID[id]
	return v, ok
}

// Has reports whether id is indexed.
func (t Table[T]) Has(id string) bool {
	_, ok := t.ByID[id]
	return ok
}

// EventMapTable additionally indexes entries by tile-event id.
type EventMapTable struct {
	Table[types.EventMapEntry]
	ByTileEventID map[int]*types.EventMapEntry
}

// Store is the indexed content corpus. It is built once by Load and read
// by every subsystem afterwards.
type Store struct {
	Armor         Table[types.Armor]
	Encounter     Table[types.Encounter]
	Enemy         Table[types.Enemy]
	Event         Table[types.Event]
	EventMap      EventMapTable
	Faction       Table[types.Faction]
	Formation     Table[types.Formation]
	StatusEffects Table[types.StatusEffect]
	Item          Table[types.Item]
	LootTable     Table[types.LootTable]
	Party         Table[types.Party]
	Quest         Table[types.Quest]
	Shop          Table[types.Shop]
	Skill         Table[types.Skill]
	Weapon        Table[types.Weapon]

	Balance types.Balance
	ER      types.ER

	// Locales is keyed by locale tag ("en", "ja").
	Locales         map[string]types.Locale
	ReferenceLocale string

	matcher language.Matcher
	tags    []string
}

// Content is an unindexed corpus. NewStore indexes it without running
// any validation.
type Content struct {
	Armor         []types.Armor
	Encounter     []types.Encounter
	Enemy         []types.Enemy
	Event         []types.Event
	EventMap      []types.EventMapEntry
	Faction       []types.Faction
	Formation     []types.Formation
	StatusEffects []types.StatusEffect
	Item          []types.Item
	LootTable     []types.LootTable
	Party         []types.Party
	Quest         []types.Quest
	Shop          []types.Shop
	Skill         []types.Skill
	Weapon        []types.Weapon

	Balance         types.Balance
	ER              types.ER
	Locales         map[string]types.Locale
	ReferenceLocale string
}

// NewStore indexes c. The first entry wins when a tile-event id repeats.
func NewStore(c Content) *Store {
	s := &Store{
		Armor:         newTable(c.Armor, func(a *types.Armor) string { return a.ID }),
		Encounter:     newTable(c.Encounter, func(e *types.Encounter) string { return e.ID }),
		Enemy:         newTable(c.Enemy, func(e *types.Enemy) string { return e.ID }),
		Event:         newTable(c.Event, func(e *types.Event) string { return e.ID }),
		Faction:       newTable(c.Faction, func(f *types.Faction) string { return f.ID }),
		Formation:     newTable(c.Formation, func(f *types.Formation) string { return f.ID }),
		StatusEffects: newTable(c.StatusEffects, func(e *types.StatusEffect) string { return e.ID }),
		Item:          newTable(c.Item, func(i *types.Item) string { return i.ID }),
		LootTable:     newTable(c.LootTable, func(l *types.LootTable) string { return l.ID }),
		Party:         newTable(c.Party, func(p *types.Party) string { return p.ID }),
		Quest:         newTable(c.Quest, func(q *types.Quest) string { return q.ID }),
		Shop:          newTable(c.Shop, func(sh *types.Shop) string { return sh.ID }),
		Skill:         newTable(c.Skill, func(sk *types.Skill) string { return sk.ID }),
		Weapon:        newTable(c.Weapon, func(w *types.Weapon) string { return w.ID }),

		Balance:         c.Balance,
		ER:              c.ER,
		Locales:         c.Locales,
		ReferenceLocale: c.ReferenceLocale,
	}
	if s.Locales == nil {
		s.Locales = map[string]types.Locale{}
	}
	if s.ReferenceLocale == "" {
		s.ReferenceLocale = "en"
	}

	s.EventMap = EventMapTable{
		Table:         newTable(c.EventMap, func(e *types.EventMapEntry) string { return e.ID }),
		ByTileEventID: make(map[int]*types.EventMapEntry, len(c.EventMap)),
	}
	for i := range s.EventMap.All {
		e := &s.EventMap.All[i]
		if _, dup := s.EventMap.ByTileEventID[e.TileEventID]; !dup {
			s.EventMap.ByTileEventID[e.TileEventID] = e
		}
	}

	s.buildMatcher()
	return s
}

// indexOverrides renames content files whose index key is not the
// dash-stripped file name.
var indexOverrides = map[string]string{
	"status-effect": "statusEffects",
	"event-map":     "eventMap",
}

// IndexName returns the index key for a content file stem:
// "status-effect" -> "statusEffects", "i18n/ja" -> "i18n_ja",
// "loot_table" -> "loot_table".
func IndexName(stem string) string {
	if name, ok := indexOverrides[stem]; ok {
		return name
	}
	if locale, ok := strings.CutPrefix(stem, "i18n/"); ok {
		return "i18n_" + locale
	}
	return strings.ReplaceAll(stem, "-", "")
}

// Index returns the table or record registered under an index key.
func (s *Store) Index(name string) (any, bool) {
	switch name {
	case "armor":
		return s.Armor, true
	case "balance":
		return s.Balance, true
	case "encounter":
		return s.Encounter, true
	case "enemy":
		return s.Enemy, true
	case "er":
		return s.ER, true
	case "event":
		return s.Event, true
	case "eventMap":
		return s.EventMap, true
	case "faction":
		return s.Faction, true
	case "formation":
		return s.Formation, true
	case "statusEffects":
		return s.StatusEffects, true
	case "item":
		return s.Item, true
	case "loot_table":
		return s.LootTable, true
	case "party":
		return s.Party, true
	case "quest":
		return s.Quest, true
	case "shop":
		return s.Shop, true
	case "skill":
		return s.Skill, true
	case "weapon":
		return s.Weapon, true
	}
	if locale, ok := strings.CutPrefix(name, "i18n_"); ok {
		l, ok := s.Locales[locale]
		return l, ok
	}
	return nil, false
}

// MatchLocale picks the loaded locale that best serves the requested
// BCP 47 tag, falling back to the reference locale.
func (s *Store) MatchLocale(requested string) string {
	if s.matcher == nil || requested == "" {
		return s.ReferenceLocale
	}
	tag, err := language.Parse(requested)
	if err != nil {
		return s.ReferenceLocale
	}
	_, idx, conf := s.matcher.Match(tag)
	if conf == language.No {
		return s.ReferenceLocale
	}
	return s.tags[idx]
}

// Text resolves an i18n key in the given locale. Keys may carry an
// "i18n." prefix. Unknown keys render as "[MISSING:key]".
func (s *Store) Text(locale, key string) string {
	k := strings.TrimPrefix(key, "i18n.")
	if tbl, ok := s.Locales[locale]; ok {
		if v, ok := tbl[k]; ok {
			return v
		}
	}
	if tbl, ok := s.Locales[s.ReferenceLocale]; ok {
		if v, ok := tbl[k]; ok {
			return v
		}
	}
	return "[" + CodeMissingPrefix + k + "]"
}

// ItemName returns the display name of an item, weapon or armor id,
// or the id itself when unknown.
func (s *Store) ItemName(id string) string {
	if it, ok := s.Item.Get(id); ok {
		return it.Name
	}
	if w, ok := s.Weapon.Get(id); ok {
		return w.Name
	}
	if a, ok := s.Armor.Get(id); ok {
		return a.Name
	}
	return id
}

// buildMatcher prepares locale negotiation over the loaded locales, with
// the reference locale as the preferred fallback.
func (s *Store) buildMatcher() {
	s.tags = s.tags[:0]
	var tags []language.Tag
	if _, ok := s.Locales[s.ReferenceLocale]; ok {
		s.tags = append(s.tags, s.ReferenceLocale)
		tags = append(tags, language.Make(s.ReferenceLocale))
	}
	others := make([]string, 0, len(s.Locales))
	for name := range s.Locales {
		if name != s.ReferenceLocale {
			others = append(others, name)
		}
	}
	sort.Strings(others)
	for _, name := range others {
		s.tags = append(s.tags, name)
		tags = append(tags, language.Make(name))
	}
	if len(tags) > 0 {
		s.matcher = language.NewMatcher(tags)
	}
}
