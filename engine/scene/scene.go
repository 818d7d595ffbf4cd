// Package scene owns the scene graph: one current scene, at most one
// overlay above it, and the per-frame tick that drives them.
package scene

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrOverlayActive    = errors.New("overlay active")
	ErrOverlayStackFull = errors.New("overlay stack full")
	ErrUnknownScene     = errors.New("unknown scene")
)

// Scene is one screen of the game. Enter receives the params passed to
// ChangeScene or OpenOverlay.
type Scene interface {
	Enter(params any) error
	Exit()
	Update(dt float64) error
	Render()
}

// Pauser is implemented by scenes that react to an overlay opening above
// them.
type Pauser interface {
	Pause()
	Resume()
}

// Default scene names.
const (
	Title     = "title"
	Field     = "field"
	Battle    = "battle"
	Result    = "result"
	MenuScene = "menu"
	Formation = "formation"
)

// maxDT caps a single frame's delta so a stalled host does not teleport
// the player.
const maxDT = 0.25

type entry struct {
	name  string
	scene Scene
}

// Orchestrator switches scenes and runs the frame loop body.
type Orchestrator struct {
	input  *Input
	log    *zap.Logger
	scenes map[string]Scene

	current entry
	paused  *entry

	// MenuFrom lists the scenes over which the Menu action opens the menu
	// overlay.
	MenuFrom map[string]bool
	MenuName string

	last time.Time
}

func New(input *Input, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		input:    input,
		log:      logger.Named("scene"),
		scenes:   map[string]Scene{},
		MenuFrom: map[string]bool{Field: true, Battle: true},
		MenuName: MenuScene,
	}
}

// Register adds or replaces a named scene.
func (o *Orchestrator) Register(name string, s Scene) { o.scenes[name] = s }

// Input returns the shared input state.
func (o *Orchestrator) Input() *Input { return o.input }

// Current returns the active scene name, which is the overlay's name while
// one is open.
func (o *Orchestrator) Current() string { return o.current.name }

// Base returns the scene under the overlay, or the current scene.
func (o *Orchestrator) Base() string {
	if o.paused != nil {
		return o.paused.name
	}
	return o.current.name
}

func (o *Orchestrator) OverlayActive() bool { return o.paused != nil }

// ChangeScene exits the current scene and enters another. It is refused
// while an overlay is open. An Enter error is logged and the new scene
// stays current.
func (o *Orchestrator) ChangeScene(name string, params any) error {
	if o.paused != nil {
		return fmt.Errorf("change to %s: %w", name, ErrOverlayActive)
	}
	next, ok := o.scenes[name]
	if !ok {
		return fmt.Errorf("change to %s: %w", name, ErrUnknownScene)
	}
	if o.current.scene != nil {
		o.log.Debug("exit scene", zap.String("scene", o.current.name))
		o.current.scene.Exit()
	}
	o.current = entry{name: name, scene: next}
	o.log.Debug("enter scene", zap.String("scene", name))
	if err := next.Enter(params); err != nil {
		o.log.Error("scene enter failed", zap.String("scene", name), zap.Error(err))
	}
	return nil
}

// OpenOverlay pauses the current scene and enters an overlay above it.
// Only one overlay may be open.
func (o *Orchestrator) OpenOverlay(name string, params any) error {
	if o.paused != nil {
		return fmt.Errorf("open %s over %s: %w", name, o.current.name, ErrOverlayStackFull)
	}
	next, ok := o.scenes[name]
	if !ok {
		return fmt.Errorf("open %s: %w", name, ErrUnknownScene)
	}
	if o.current.scene == nil {
		return fmt.Errorf("open %s: no scene to cover: %w", name, ErrUnknownScene)
	}
	base := o.current
	o.paused = &base
	if p, ok := base.scene.(Pauser); ok {
		p.Pause()
	}
	o.current = entry{name: name, scene: next}
	o.log.Debug("open overlay", zap.String("overlay", name), zap.String("over", base.name))
	if err := next.Enter(params); err != nil {
		o.log.Error("overlay enter failed", zap.String("overlay", name), zap.Error(err))
	}
	return nil
}

// CloseOverlay exits the overlay and resumes the scene below. It reports
// whether an overlay was open.
func (o *Orchestrator) CloseOverlay() bool {
	if o.paused == nil {
		return false
	}
	o.log.Debug("close overlay", zap.String("overlay", o.current.name))
	o.current.scene.Exit()
	o.current = *o.paused
	o.paused = nil
	if p, ok := o.current.scene.(Pauser); ok {
		p.Resume()
	}
	return true
}

// Start enters the first scene and anchors the frame clock.
func (o *Orchestrator) Start(name string, params any, now time.Time) error {
	o.last = now
	return o.ChangeScene(name, params)
}

// Tick runs one frame and then clears this frame's input edges. A Menu
// press toggles the menu overlay in place of the update. A panic
// inside a scene aborts the frame and is returned as an error.
func (o *Orchestrator) Tick(now time.Time) (err error) {
	defer o.input.EndFrame()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame aborted in %s: %v", o.current.name, r)
			o.log.Error("frame aborted", zap.String("scene", o.current.name), zap.Any("panic", r))
		}
	}()

	dt := 0.0
	if !o.last.IsZero() {
		dt = min(now.Sub(o.last).Seconds(), maxDT)
	}
	o.last = now

	if o.current.scene == nil {
		return nil
	}

	if o.input.IsActionJustPressed(Menu) {
		switch {
		case o.paused != nil && o.current.name == o.MenuName:
			o.CloseOverlay()
			o.current.scene.Render()
			return nil
		case o.paused == nil && o.MenuFrom[o.current.name]:
			if err := o.OpenOverlay(o.MenuName, nil); err != nil {
				o.log.Warn("menu unavailable", zap.Error(err))
			}
			o.current.scene.Render()
			return nil
		}
	}

	if err := o.current.scene.Update(dt); err != nil {
		o.log.Error("scene update failed", zap.String("scene", o.current.name), zap.Error(err))
		return err
	}
	o.current.scene.Render()
	return nil
}
