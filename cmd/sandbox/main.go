// Command sandbox is an interactive terminal view of a character driving the
// distance matching controller.
//
// WASD or the arrow keys hold input, space jumps forward, t turns in place to the
// left of the current facing, p pivots toward the held input, x stops matching and
// Esc or q quits. The marker is drawn in its phase colour.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cxd309/dm-engine/internal/kinematics"
	"github.com/cxd309/dm-engine/internal/matching"
	"github.com/cxd309/dm-engine/internal/movement"
)

const (
	frameTime = 16 * time.Millisecond // ~60 FPS
	holdTime  = 150 * time.Millisecond

	unitsPerColumn = 10.0
	unitsPerRow    = 20.0
	jumpDistance   = 300.0
)

type sandbox struct {
	screen    tcell.Screen
	character *movement.Character
	ctrl      *matching.Controller

	input     mgl64.Vec3
	inputTill time.Time
	trigger   matching.Trigger
}

func newSandbox(logFile string) (*sandbox, error) {
	logger := zerolog.Nop()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logger = zerolog.New(f).With().Timestamp().Logger()
	}
	log.Logger = logger

	character, err := movement.NewCharacter(movement.DefaultDefinition())
	if err != nil {
		return nil, err
	}
	cfg := matching.DefaultConfig()
	cfg.AutomaticTriggers = true
	ctrl, err := matching.New(cfg, character, character, matching.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	return &sandbox{screen: screen, character: character, ctrl: ctrl}, nil
}

// handleInput applies one terminal event. It returns false to quit.
func (s *sandbox) handleInput(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		if _, resized := ev.(*tcell.EventResize); resized {
			s.screen.Sync()
		}
		return true
	}

	var dir mgl64.Vec3
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		dir = mgl64.Vec3{0, 1, 0}
	case tcell.KeyDown:
		dir = mgl64.Vec3{0, -1, 0}
	case tcell.KeyLeft:
		dir = mgl64.Vec3{-1, 0, 0}
	case tcell.KeyRight:
		dir = mgl64.Vec3{1, 0, 0}
	case tcell.KeyRune:
		switch key.Rune() {
		case 'q':
			return false
		case 'w':
			dir = mgl64.Vec3{0, 1, 0}
		case 's':
			dir = mgl64.Vec3{0, -1, 0}
		case 'a':
			dir = mgl64.Vec3{-1, 0, 0}
		case 'd':
			dir = mgl64.Vec3{1, 0, 0}
		case ' ':
			fwd := s.character.Forward()
			s.ctrl.TriggerJump(s.character.Location().Add(fwd.Mul(jumpDistance)))
		case 't':
			fwd := s.character.Forward()
			s.ctrl.TriggerTurnInPlaceTo(mgl64.Vec3{-fwd.Y(), fwd.X(), 0})
		case 'p':
			s.ctrl.TriggerPivotTo()
		case 'x':
			s.ctrl.Stop()
		}
	}

	if !kinematics.IsNearlyZero(dir) {
		s.input = dir
		s.inputTill = time.Now().Add(holdTime)
	}
	return true
}

func (s *sandbox) update(dt float64) {
	if time.Now().After(s.inputTill) {
		s.input = mgl64.Vec3{}
	}
	s.character.SetInput(s.input)
	s.character.Step(dt)
	s.ctrl.Tick(dt)
	if t := s.ctrl.GetAndConsumeTriggeredTransition(); t != matching.TriggerNone {
		s.trigger = t
	}
}

func (s *sandbox) draw() {
	s.screen.Clear()
	w, h := s.screen.Size()
	origin := s.character.Location()

	// project maps a world point to a cell, with the character at the centre.
	project := func(p mgl64.Vec3) (int, int) {
		d := p.Sub(origin)
		return w/2 + int(d.X()/unitsPerColumn), h/2 - int(d.Y()/unitsPerRow)
	}

	state := s.ctrl.Snapshot()
	if state.Phase != matching.PhaseNone && state.Basis == matching.BasisPositional {
		c := state.Phase.DebugColor()
		x, y := project(state.Marker)
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		s.screen.SetContent(x, y, 'X', nil, style)
	}

	fwd := s.character.Forward()
	fx, fy := project(origin.Add(fwd.Mul(unitsPerColumn * 2)))
	s.screen.SetContent(fx, fy, '·', nil, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	s.screen.SetContent(w/2, h/2, '@', nil, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))

	hud := []string{
		fmt.Sprintf("phase %-8s basis %-10s trigger %s", state.Phase, state.Basis, s.trigger),
		fmt.Sprintf("distance %8.2f  measured %8.2f  time %6.3f", state.DistanceToMarker, s.ctrl.MarkerDistance(), state.TimeToMarker),
		fmt.Sprintf("speed %7.2f  instance %d  reached %t", s.character.Velocity().Len(), state.InstanceID, state.DestinationReached),
		"wasd/arrows move  space jump  t turn  p pivot  x stop  q quit",
	}
	for row, line := range hud {
		for col, r := range []rune(line) {
			s.screen.SetContent(col, row, r, nil, tcell.StyleDefault)
		}
	}
	s.screen.Show()
}

func (s *sandbox) run() {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- s.screen.PollEvent()
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			s.update(now.Sub(last).Seconds())
			last = now
			s.draw()
		}
	}
}

func main() {
	logFile := flag.String("log", "", "write controller transitions to this file")
	flag.Parse()

	sb, err := newSandbox(*logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer sb.screen.Fini()

	sb.run()
}
