// Package cli is the line-oriented host: each input line runs one or more
// frames and the regions that changed are printed as plain text. Script
// files use it for reproducible play-throughs.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/sparksaga/engine"
	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/ui"
)

// maxRepeat bounds the frame count a single line may ask for.
const maxRepeat = 600

// CLI handles plain terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Board     *ui.Board
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)

	// Frame is the virtual time between frames; Now is the virtual clock,
	// which only moves when frames run.
	Frame time.Duration
	Now   time.Time

	printed map[string]string
	logSeen int
}

// New creates a CLI over an engine started at now.
func New(eng *engine.Engine, board *ui.Board, tickRate int, now time.Time) *CLI {
	if tickRate <= 0 {
		tickRate = 30
	}
	return &CLI{
		Engine:  eng,
		Board:   board,
		In:      os.Stdin,
		Out:     os.Stdout,
		Frame:   time.Second / time.Duration(tickRate),
		Now:     now,
		printed: map[string]string{},
	}
}

// command is one parsed input line.
type command struct {
	action scene.Action
	wait   bool
	frames int
}

var actionWords = map[string]scene.Action{
	"up":      scene.MoveUp,
	"down":    scene.MoveDown,
	"left":    scene.MoveLeft,
	"right":   scene.MoveRight,
	"confirm": scene.Confirm,
	"cancel":  scene.Cancel,
	"menu":    scene.Menu,
	"prev":    scene.TargetPrev,
	"next":    scene.TargetNext,
}

// parseCommand reads "<word> [frames]". Movement holds for the frame
// count; any other action is pressed once and the remaining frames wait.
func parseCommand(line string) (command, error) {
	parts := strings.Fields(strings.ToLower(line))
	if len(parts) == 0 || len(parts) > 2 {
		return command{}, fmt.Errorf("expected <action> [frames], got %q", line)
	}
	cmd := command{frames: 1}
	if len(parts) == 2 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || n > maxRepeat {
			return command{}, fmt.Errorf("frame count %q must be 1..%d", parts[1], maxRepeat)
		}
		cmd.frames = n
	}
	if parts[0] == "wait" {
		cmd.wait = true
		return cmd, nil
	}
	a, ok := actionWords[parts[0]]
	if !ok {
		return command{}, fmt.Errorf("unknown command: %s", parts[0])
	}
	cmd.action = a
	return cmd, nil
}

func isMove(a scene.Action) bool {
	switch a {
	case scene.MoveUp, scene.MoveDown, scene.MoveLeft, scene.MoveRight:
		return true
	}
	return false
}

// Run draws the first frame, then loops: prompt, input, frames, output.
// It returns when input ends or on /quit.
func (c *CLI) Run() {
	c.step(1)
	c.printChanges()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		cmd, err := parseCommand(input)
		if err != nil {
			c.printSystem(fmt.Sprintf("%v. Type /help for available commands.", err))
			continue
		}
		c.run(cmd)
		c.printChanges()
	}
}

func (c *CLI) run(cmd command) {
	in := c.Engine.Input
	in.SetDevice(scene.Keyboard)
	switch {
	case cmd.wait:
	case isMove(cmd.action):
		in.Tap(cmd.action, cmd.frames)
	default:
		in.Tap(cmd.action, 0)
	}
	c.step(cmd.frames)
}

// step runs n frames on the virtual clock.
func (c *CLI) step(n int) {
	for range n {
		c.Now = c.Now.Add(c.Frame)
		if err := c.Engine.Tick(c.Now); err != nil {
			c.printSystem(fmt.Sprintf("Frame error: %v", err))
		}
	}
}

// printChanges prints new log lines, then every visible region whose
// content differs from what was last printed.
func (c *CLI) printChanges() {
	lines := c.Board.Text(ui.LogPane)
	fresh := c.Board.Logged() - c.logSeen
	if fresh < 0 || fresh > len(lines) {
		fresh = len(lines)
	}
	for _, l := range lines[len(lines)-fresh:] {
		c.printLine("* " + l)
	}
	c.logSeen = c.Board.Logged()

	for _, id := range c.Board.Changed() {
		if id == ui.LogPane {
			continue
		}
		r, _ := c.Board.Region(id)
		text := render(r)
		if r.Hidden || len(r.Lines) == 0 {
			text = ""
		}
		if c.printed[id] == text {
			continue
		}
		c.printed[id] = text
		if text == "" {
			continue
		}
		c.printLine("== " + id + " ==")
		c.printLine(text)
	}
}

// render draws a region with a marker on the selected entry.
func render(r ui.Region) string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		switch {
		case r.Selected >= 0 && i == r.Selected:
			out[i] = "> " + l
		case r.Selected >= 0:
			out[i] = "  " + l
		default:
			out[i] = l
		}
	}
	return strings.Join(out, "\n")
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	switch strings.Fields(input)[0] {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true
	case "/help":
		c.cmdHelp()
	case "/state":
		c.cmdState()
	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", input))
	}
	return false
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /quit          Exit game",
		"  /help          Show this help",
		"  /state         Dump progress",
		"",
		"Input (optional frame count, default 1):",
		"  up, down, left, right [n]   Hold a direction for n frames",
		"  confirm, cancel, menu       Press once",
		"  prev, next                  Cycle battle targets",
		"  wait [n]                    Let n frames pass",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	e := c.Engine
	s := e.State
	c.printSystem(fmt.Sprintf("Scene: %s", e.Scenes.Current()))
	c.printSystem(fmt.Sprintf("Region: %s", s.Region))
	c.printSystem(fmt.Sprintf("Gold: %d EXP: %d", s.Gold, s.Experience))
	c.printSystem(fmt.Sprintf("Formation: %s", s.Formation()))
	c.printSystem(fmt.Sprintf("RNG: seed %d, draw %d", e.RNG.Seed(), e.RNG.Position()))
	if p := e.Screens.Field.Player; p != nil {
		c.printSystem(fmt.Sprintf("Position: %.0f,%.0f", p.X, p.Y))
	}
	for _, it := range s.Inventory() {
		c.printSystem(fmt.Sprintf("Item: %s x%d", it.ID, it.Value))
	}
	for _, q := range s.Quests() {
		c.printSystem(fmt.Sprintf("Quest: %s %s", q.ID, q.Value))
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
