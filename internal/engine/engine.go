// Package engine runs distance matching scenarios.
//
// The simulation advances in fixed timesteps. Each step:
//
//  1. Movement - the held input for the current time is applied and the character
//     is integrated by one timestep.
//
//  2. Matching - manual events due in this step are fired, the controller ticks
//     (detecting transitions when configured to) and a fresh trigger restarts the
//     animation player.
//
//  3. Playback - the player matches the controller's distance to its curve, or
//     plays normally when no episode is active.
package engine

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cxd309/dm-engine/internal/curve"
	"github.com/cxd309/dm-engine/internal/matching"
	"github.com/cxd309/dm-engine/internal/movement"
	"github.com/cxd309/dm-engine/internal/playback"
)

// Option configures a Sim.
type Option func(*Sim)

// WithLogger sets the logger the run and its components write to.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sim) { s.logger = l }
}

// Sim is the distance matching simulation state.
type Sim struct {
	meta      SimulationMeta
	inputs    []InputSegment
	events    []Event
	character *movement.Character
	ctrl      *matching.Controller
	player    *playback.Player
	logger    zerolog.Logger

	nextEvent int
	curTime   float64
}

// NewSim validates input and builds the character, controller and optional player.
func NewSim(input SimulationInput, opts ...Option) (*Sim, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s := &Sim{
		meta:   input.Meta,
		inputs: input.Inputs,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.meta.SimulationID == "" {
		s.meta.SimulationID = uuid.NewString()
	}
	s.logger = s.logger.With().Str("simulation", s.meta.SimulationID).Logger()

	s.events = append([]Event(nil), input.Events...)
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].Time < s.events[j].Time })

	character, err := movement.NewCharacter(input.Character)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	s.character = character

	ctrl, err := matching.New(input.Controller, character, character, matching.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("creating controller: %w", err)
	}
	s.ctrl = ctrl

	if input.Animation.present() {
		player, err := playback.NewPlayer(input.Animation.Settings, curve.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("creating player: %w", err)
		}
		anim := input.Animation.Animation
		if err := player.SetAnimation(&anim); err != nil {
			// The player still plays the animation without matching.
			s.logger.Warn().Err(err).Msg("animation has no usable distance curve")
		}
		player.Initialize()
		s.player = player
	}
	return s, nil
}

// Meta returns the run's metadata, including the generated id.
func (s *Sim) Meta() SimulationMeta { return s.meta }

// Run executes the full simulation and returns the log.
func (s *Sim) Run() (SimulationLog, error) {
	s.logger.Info().
		Float64("run_time", s.meta.RunTime).
		Float64("time_step", s.meta.TimeStep).
		Int("events", len(s.events)).
		Msg("simulation started")

	out := SimulationLog{Meta: s.meta}
	for s.curTime <= s.meta.RunTime {
		row, err := s.step()
		if err != nil {
			return SimulationLog{}, fmt.Errorf("at t=%.3f: %w", s.curTime, err)
		}
		out.Output = append(out.Output, row)
		s.curTime += s.meta.TimeStep
	}

	s.logger.Info().Int("rows", len(out.Output)).Msg("simulation finished")
	return out, nil
}

// step advances the simulation by one timestep and returns the resulting log row.
func (s *Sim) step() (SimulationLogRow, error) {
	dt := s.meta.TimeStep

	s.applyInput()
	s.character.Step(dt)

	for s.nextEvent < len(s.events) && s.events[s.nextEvent].Time < s.curTime+dt {
		if err := s.fire(s.events[s.nextEvent], dt); err != nil {
			return SimulationLogRow{}, err
		}
		s.nextEvent++
	}

	s.ctrl.Tick(dt)
	trigger := s.ctrl.GetAndConsumeTriggeredTransition()

	row := SimulationLogRow{
		Timestamp:      s.curTime,
		Character:      s.character.GetLog(),
		Matching:       s.ctrl.Snapshot(),
		Trigger:        trigger,
		MarkerDistance: s.ctrl.MarkerDistance(),
	}

	if s.player != nil {
		if trigger != matching.TriggerNone {
			s.player.Initialize()
		}
		var t float64
		if s.ctrl.Phase() == matching.PhaseNone {
			t = s.player.Advance(dt)
		} else {
			t = s.player.Update(s.ctrl.DistanceToMarker(), dt)
		}
		row.PlaybackTime = &t
		row.Matched = s.player.Matched()
	}
	return row, nil
}

// applyInput sets the character's input and mode from the segment active now.
// Outside every segment the character walks with no input.
func (s *Sim) applyInput() {
	for _, seg := range s.inputs {
		if seg.active(s.curTime) {
			s.character.SetMode(seg.Mode)
			s.character.SetInput(seg.Direction)
			return
		}
	}
	s.character.SetMode(movement.ModeWalking)
	s.character.SetInput(mgl64.Vec3{})
}

// fire calls the controller operation named by ev.
func (s *Sim) fire(ev Event, dt float64) error {
	s.logger.Debug().Str("action", string(ev.Action)).Float64("time", ev.Time).Msg("event")

	switch ev.Action {
	case ActionStart:
		s.ctrl.TriggerStart(dt)
	case ActionStop:
		if !s.ctrl.TriggerStop(dt) {
			s.logger.Debug().Msg("stop could not be predicted")
		}
	case ActionPlant:
		if !s.ctrl.TriggerPlant(dt) {
			s.logger.Debug().Msg("plant could not be predicted")
		}
	case ActionJump:
		s.ctrl.TriggerJump(ev.Marker)
	case ActionPivotFrom:
		s.ctrl.TriggerPivotFrom()
	case ActionPivotTo:
		if !s.ctrl.TriggerPivotTo() {
			s.logger.Debug().Msg("pivot has no input direction")
		}
	case ActionTurnInPlaceFrom:
		s.ctrl.TriggerTurnInPlaceFrom()
	case ActionTurnInPlaceTo:
		s.ctrl.TriggerTurnInPlaceTo(ev.Direction)
	case ActionStopMatching:
		s.ctrl.Stop()
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidScenario, ev.Action)
	}
	return nil
}

// ParseJSON decodes a JSON scenario over DefaultInput.
func ParseJSON(data []byte) (SimulationInput, error) {
	input := DefaultInput()
	if err := json.Unmarshal(data, &input); err != nil {
		return SimulationInput{}, fmt.Errorf("invalid input JSON: %w", err)
	}
	return input, nil
}

// ParseTOML decodes a TOML scenario over DefaultInput. Unknown keys are logged.
func ParseTOML(data []byte) (SimulationInput, error) {
	input := DefaultInput()
	md, err := toml.Decode(string(data), &input)
	if err != nil {
		return SimulationInput{}, fmt.Errorf("invalid input TOML: %w", err)
	}
	for _, key := range md.Undecoded() {
		log.Warn().Stringer("key", key).Msg("unknown scenario key ignored")
	}
	return input, nil
}

// RunJSON is the entry point for the CLI and WASM targets. It accepts a JSON-encoded
// SimulationInput, runs the simulation, and returns a JSON-encoded SimulationLog.
func RunJSON(jsonInput string) (string, error) {
	input, err := ParseJSON([]byte(jsonInput))
	if err != nil {
		return "", err
	}
	return run(input)
}

// RunTOML is RunJSON for a TOML-encoded SimulationInput. The output is still JSON.
func RunTOML(tomlInput string) (string, error) {
	input, err := ParseTOML([]byte(tomlInput))
	if err != nil {
		return "", err
	}
	return run(input)
}

func run(input SimulationInput) (string, error) {
	sim, err := NewSim(input)
	if err != nil {
		return "", err
	}

	simLog, err := sim.Run()
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(simLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
