package scene

// Action is a logical input independent of the device producing it.
type Action int

const (
	MoveUp Action = iota
	MoveDown
	MoveLeft
	MoveRight
	Confirm
	Cancel
	Menu
	TargetPrev
	TargetNext
)

var actionNames = [...]string{"MoveUp", "MoveDown", "MoveLeft", "MoveRight", "Confirm", "Cancel", "Menu", "TargetPrev", "TargetNext"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "Action(?)"
	}
	return actionNames[a]
}

// Actions lists every action in declaration order.
func Actions() []Action {
	out := make([]Action, len(actionNames))
	for i := range out {
		out[i] = Action(i)
	}
	return out
}

// Device is the input device the player last used.
type Device string

const (
	Keyboard Device = "keyboard"
	Gamepad  Device = "gamepad"
	Touch    Device = "touch"
)

// DefaultKeyMap binds key names to actions.
func DefaultKeyMap() map[string]Action {
	return map[string]Action{
		"ArrowUp":    MoveUp,
		"w":          MoveUp,
		"ArrowDown":  MoveDown,
		"s":          MoveDown,
		"ArrowLeft":  MoveLeft,
		"a":          MoveLeft,
		"ArrowRight": MoveRight,
		"d":          MoveRight,
		"Enter":      Confirm,
		" ":          Confirm,
		"Escape":     Cancel,
		"m":          Menu,
		"q":          TargetPrev,
		"e":          TargetNext,
	}
}

// DefaultGamepadMap binds standard-layout button indices to actions.
func DefaultGamepadMap() map[int]Action {
	return map[int]Action{
		12: MoveUp,
		13: MoveDown,
		14: MoveLeft,
		15: MoveRight,
		0:  Confirm,
		1:  Cancel,
		9:  Menu,
	}
}

// Input tracks which actions are held and which went down this frame.
// Hosts report device changes at any time; the orchestrator calls EndFrame
// after each tick so a rising edge is visible for exactly one frame.
type Input struct {
	down    map[Action]bool
	pressed map[Action]bool
	held    map[Action]int
	keys    map[string]Action
	buttons map[int]Action
	device  Device
}

func NewInput() *Input {
	return &Input{
		down:    map[Action]bool{},
		pressed: map[Action]bool{},
		held:    map[Action]int{},
		keys:    DefaultKeyMap(),
		buttons: DefaultGamepadMap(),
		device:  Keyboard,
	}
}

// SetActionState records an action going up or down.
func (in *Input) SetActionState(a Action, down bool) {
	if down && !in.down[a] {
		in.pressed[a] = true
	}
	in.down[a] = down
	delete(in.held, a)
}

// Key reports a keyboard key. Unbound keys are ignored.
func (in *Input) Key(name string, down bool) bool {
	a, ok := in.keys[name]
	if !ok {
		return false
	}
	in.device = Keyboard
	in.SetActionState(a, down)
	return true
}

// Button reports a gamepad button. Unbound buttons are ignored.
func (in *Input) Button(index int, down bool) bool {
	a, ok := in.buttons[index]
	if !ok {
		return false
	}
	in.device = Gamepad
	in.SetActionState(a, down)
	return true
}

// Tap is a discrete key press for hosts that see presses but no releases.
// Every tap is a rising edge; the action then stays held for the given
// number of frames.
func (in *Input) Tap(a Action, frames int) {
	in.pressed[a] = true
	if frames <= 0 {
		return
	}
	in.down[a] = true
	in.held[a] = max(in.held[a], frames)
}

func (in *Input) IsActionDown(a Action) bool { return in.down[a] }

func (in *Input) IsActionJustPressed(a Action) bool { return in.pressed[a] }

// EndFrame clears the rising edges seen during the frame and releases
// expired taps.
func (in *Input) EndFrame() {
	clear(in.pressed)
	for a, n := range in.held {
		if n <= 1 {
			delete(in.held, a)
			in.down[a] = false
			continue
		}
		in.held[a] = n - 1
	}
}

// ReleaseAll marks every action as up.
func (in *Input) ReleaseAll() {
	clear(in.down)
	clear(in.held)
}

func (in *Input) Device() Device { return in.device }

func (in *Input) SetDevice(d Device) { in.device = d }

// Direction returns the held movement as a unit-less (dx, dy) pair with
// components in {-1, 0, 1}.
func (in *Input) Direction() (float64, float64) {
	var dx, dy float64
	if in.down[MoveUp] {
		dy--
	}
	if in.down[MoveDown] {
		dy++
	}
	if in.down[MoveLeft] {
		dx--
	}
	if in.down[MoveRight] {
		dx++
	}
	return dx, dy
}
