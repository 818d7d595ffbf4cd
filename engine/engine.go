// Package engine wires the content store, game state, random stream,
// input, rendering surface and scenes into one runnable game.
package engine

import (
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/combat"
	"github.com/nathoo/sparksaga/engine/dialogue"
	"github.com/nathoo/sparksaga/engine/events"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/engine/scenes"
	"github.com/nathoo/sparksaga/engine/state"
	"github.com/nathoo/sparksaga/loader"
	"github.com/nathoo/sparksaga/ui"
)

// Options configure a new engine.
type Options struct {
	// Maps holds tilemaps; MapName is the field map inside it.
	Maps    fs.FS
	MapName string
	// Locale is negotiated against the loaded locales.
	Locale string
	Seed   int64
	// PlayerSpeed is in pixels per second. Zero keeps the default.
	PlayerSpeed float64
	// Surface defaults to a Board with every region.
	Surface ui.Surface
	// Rand replaces the seeded stream. Tests use it to fix every roll.
	Rand combat.Rand
	// Now is the wall clock used for event cooldowns.
	Now    func() time.Time
	Logger *zap.Logger
}

// Engine holds the content, the mutable state and the scene graph.
type Engine struct {
	Store    *loader.Store
	State    *state.GameState
	RNG      *RNG
	Input    *scene.Input
	UI       ui.Surface
	Scenes   *scene.Orchestrator
	Dialogue *dialogue.Engine
	Events   *events.Manager
	Env      *scenes.Env
	Screens  *scenes.Set

	log *zap.Logger
}

// New creates an engine over a loaded store and registers every scene.
func New(store *loader.Store, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	surface := opts.Surface
	if surface == nil {
		surface = ui.NewBoard(log)
	}

	e := &Engine{
		Store: store,
		State: state.New(store),
		RNG:   NewRNG(opts.Seed),
		Input: scene.NewInput(),
		UI:    surface,
		log:   log.Named("engine"),
	}
	e.Scenes = scene.New(e.Input, log)
	e.Dialogue = dialogue.New(store, e.State, log)
	e.Events = events.New(store, e.State, e.Dialogue, surface, log)
	if opts.Now != nil {
		e.Events.Now = opts.Now
	}

	var rnd combat.Rand = e.RNG
	if opts.Rand != nil {
		rnd = opts.Rand
	}
	e.Env = &scenes.Env{
		Store:       store,
		State:       e.State,
		Rand:        rnd,
		Input:       e.Input,
		UI:          surface,
		Scenes:      e.Scenes,
		Dialogue:    e.Dialogue,
		Events:      e.Events,
		Maps:        opts.Maps,
		MapName:     opts.MapName,
		Locale:      store.MatchLocale(opts.Locale),
		PlayerSpeed: opts.PlayerSpeed,
		Logger:      log,
	}
	e.Screens = scenes.Register(e.Env)

	e.log.Info("engine ready",
		zap.Int64("seed", opts.Seed),
		zap.String("locale", e.Env.Locale),
		zap.String("map", opts.MapName))
	return e
}

// Start enters the first scene.
func (e *Engine) Start(name string, now time.Time) error {
	return e.Scenes.Start(name, nil, now)
}

// Tick runs one frame.
func (e *Engine) Tick(now time.Time) error {
	return e.Scenes.Tick(now)
}

// RestoreRNG re-creates the stream from seed and advances it to a logged
// position, so a recorded session can be replayed from that draw.
func (e *Engine) RestoreRNG(seed int64, position int64) {
	e.RNG = RestoreRNG(seed, position)
	e.Env.Rand = e.RNG
}
