// Package loader fetches, validates, cross-checks and indexes the
// declarative content corpus.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/sparksaga/types"
)

// ContentFiles lists the content file stems fetched from every source.
var ContentFiles = []string{
	"armor", "balance", "encounter", "enemy", "er", "event", "event-map",
	"faction", "formation", "status-effect", "item", "loot_table", "party",
	"quest", "shop", "skill", "weapon",
}

// Options configures a Load.
type Options struct {
	// Locales are fetched as i18n/<locale>.json. Defaults to en and ja.
	Locales []string
	// ReferenceLocale is the locale every other locale is checked against.
	ReferenceLocale string
	// Concurrency bounds in-flight fetches. Zero means unbounded.
	Concurrency int
	Logger      *zap.Logger
}

func (o *Options) normalize() {
	if len(o.Locales) == 0 {
		o.Locales = []string{"en", "ja"}
	}
	if o.ReferenceLocale == "" {
		o.ReferenceLocale = o.Locales[0]
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Load runs the four content phases in order: fetch, schema validation,
// referential integrity, index. Fetch and schema failures are FATAL and
// stop the pipeline before the next phase; the returned Store is nil
// whenever the logs contain a FATAL entry.
func Load(ctx context.Context, src Source, opts Options) (*Store, Logs) {
	opts.normalize()
	log := opts.Logger.Named("loader")

	var logs Logs
	defer func() { logs.emit(log) }()

	names := make([]string, 0, len(ContentFiles)+len(opts.Locales))
	for _, stem := range ContentFiles {
		names = append(names, stem+".json")
	}
	for _, loc := range opts.Locales {
		names = append(names, "i18n/"+loc+".json")
	}

	raw, err := fetchAll(ctx, src, names, opts.Concurrency)
	if err != nil {
		logs.fatal(CodeUnexpected, "", fmt.Sprintf("Fetch aborted: %v", err))
		return nil, logs
	}
	for i, r := range raw {
		switch {
		case r.err == nil:
		case errors.Is(r.err, fs.ErrNotExist):
			logs.fatal(CodeFileNotFound, names[i],
				fmt.Sprintf("Failed to load essential data file: %s", names[i]))
		case errors.Is(r.err, ErrScript):
			logs.fatal(CodeSchemaLoading, names[i], r.err.Error())
		default:
			logs.fatal(CodeUnexpected, names[i],
				fmt.Sprintf("Unexpected error loading %s: %v", names[i], r.err))
		}
	}
	if logs.HasFatal() {
		return nil, logs
	}
	log.Debug("content fetched", zap.Int("files", len(names)))

	files := make(map[string][]byte, len(names))
	for i, n := range names {
		files[n] = raw[i].data
	}

	sc := &schema{v: newValidator(), logs: &logs}
	c := decodeAll(sc, files, opts.Locales)
	if logs.HasFatal() {
		return nil, logs
	}
	c.ReferenceLocale = opts.ReferenceLocale

	s := NewStore(c)
	checkIntegrity(s, &logs)
	checkLocaleParity(s, &logs)

	log.Info("content loaded",
		zap.Int("encounters", len(s.Encounter.All)),
		zap.Int("events", len(s.Event.All)),
		zap.Int("warnings", len(logs.Warnings())))
	return s, logs
}

type fetched struct {
	data []byte
	err  error
}

// fetchAll fetches every file concurrently. Per-file failures are kept in
// the result slot so every missing file is reported; only cancellation
// aborts the group.
func fetchAll(ctx context.Context, src Source, names []string, limit int) ([]fetched, error) {
	out := make([]fetched, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, name := range names {
		g.Go(func() error {
			data, err := src.Fetch(gctx, name)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			out[i] = fetched{data: data, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeAll runs schema validation over every fetched file.
func decodeAll(sc *schema, files map[string][]byte, locales []string) Content {
	c := Content{
		Armor: decodeArray(sc, "armor.json", files["armor.json"],
			func(a *types.Armor) string { return a.ID }, nil),
		Balance: decodeObject[types.Balance](sc, "balance.json", files["balance.json"]),
		Encounter: decodeArray(sc, "encounter.json", files["encounter.json"],
			func(e *types.Encounter) string { return e.ID }, encounterDefaults),
		Enemy: decodeArray(sc, "enemy.json", files["enemy.json"],
			func(e *types.Enemy) string { return e.ID }, nil),
		ER: decodeObject[types.ER](sc, "er.json", files["er.json"]),
		Event: decodeArray(sc, "event.json", files["event.json"],
			func(e *types.Event) string { return e.ID }, nil),
		EventMap: decodeArray(sc, "event-map.json", files["event-map.json"],
			func(e *types.EventMapEntry) string { return e.ID }, nil),
		Faction: decodeArray(sc, "faction.json", files["faction.json"],
			func(f *types.Faction) string { return f.ID }, nil),
		Formation: decodeArray(sc, "formation.json", files["formation.json"],
			func(f *types.Formation) string { return f.ID }, nil),
		StatusEffects: decodeArray(sc, "status-effect.json", files["status-effect.json"],
			func(e *types.StatusEffect) string { return e.ID }, nil),
		Item: decodeArray(sc, "item.json", files["item.json"],
			func(i *types.Item) string { return i.ID }, nil),
		LootTable: decodeArray(sc, "loot_table.json", files["loot_table.json"],
			func(l *types.LootTable) string { return l.ID }, nil),
		Party: decodeArray(sc, "party.json", files["party.json"],
			func(p *types.Party) string { return p.ID }, partyDefaults),
		Quest: decodeArray(sc, "quest.json", files["quest.json"],
			func(q *types.Quest) string { return q.ID }, nil),
		Shop: decodeArray(sc, "shop.json", files["shop.json"],
			func(sh *types.Shop) string { return sh.ID }, nil),
		Skill: decodeArray(sc, "skill.json", files["skill.json"],
			func(sk *types.Skill) string { return sk.ID }, skillDefaults),
		Weapon: decodeArray(sc, "weapon.json", files["weapon.json"],
			func(w *types.Weapon) string { return w.ID }, nil),
		Locales: make(map[string]types.Locale, len(locales)),
	}

	tiles := make(map[int]string, len(c.EventMap))
	for i, e := range c.EventMap {
		if e.Type == types.MapConversation && e.ConversationID == "" {
			sc.fail("event-map.json", fmt.Sprintf("[%d].conversationId", i), "is required")
		}
		if prev, dup := tiles[e.TileEventID]; dup {
			sc.fail("event-map.json", fmt.Sprintf("[%d].tileEventId", i),
				fmt.Sprintf("tile event %d already bound to %q", e.TileEventID, prev))
			continue
		}
		tiles[e.TileEventID] = e.ID
	}

	for i, e := range c.Encounter {
		seen := make(map[string]int, len(e.Enemies))
		for j, en := range e.Enemies {
			if first, dup := seen[en.ID]; dup {
				sc.fail("encounter.json", fmt.Sprintf("[%d].enemies[%d].id", i, j),
					fmt.Sprintf("duplicate enemy id %q (first at enemies[%d])", en.ID, first))
				continue
			}
			seen[en.ID] = j
		}
	}

	for _, loc := range locales {
		file := "i18n/" + loc + ".json"
		var tbl types.Locale
		if sc.decode(file, files[file], &tbl) {
			c.Locales[loc] = tbl
		}
	}
	return c
}
