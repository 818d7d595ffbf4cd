package scenes

import (
	"go.uber.org/zap"

	"github.com/nathoo/sparksaga/engine/scene"
	"github.com/nathoo/sparksaga/ui"
)

// Title waits for Confirm and starts a new game.
type Title struct {
	env     *Env
	log     *zap.Logger
	message string
}

func NewTitle(env *Env) *Title {
	return &Title{env: env, log: env.logger("title")}
}

func (s *Title) Enter(params any) error {
	s.message = ""
	if p, ok := params.(TitleParams); ok {
		s.message = p.Message
	}
	s.env.UI.SetText(ui.Header, "Spark Saga")
	s.env.UI.Show(ui.Header, true)
	s.env.UI.Show(ui.Main, true)
	return nil
}

func (s *Title) Exit() {
	s.env.UI.Show(ui.Main, false)
}

func (s *Title) Update(float64) error {
	if !s.env.pressed(scene.Confirm) {
		return nil
	}
	s.newGame()
	s.env.change(scene.Field, FieldParams{NewGame: true})
	return nil
}

// newGame resets every piece of progress a previous run left behind.
func (s *Title) newGame() {
	s.env.State.Initialize()
	s.env.Events.Reset()
	s.env.Dialogue.Abort()
	s.log.Info("new game")
}

func (s *Title) Render() {
	lines := []string{"SPARK SAGA", ""}
	if s.message != "" {
		lines = append(lines, s.message, "")
	}
	lines = append(lines, "> New Game")
	s.env.UI.SetText(ui.Main, lines...)
	s.env.showHelp()
}
