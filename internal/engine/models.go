package engine

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cxd309/dm-engine/internal/curve"
	"github.com/cxd309/dm-engine/internal/matching"
	"github.com/cxd309/dm-engine/internal/movement"
	"github.com/cxd309/dm-engine/internal/playback"
)

// ErrInvalidScenario is wrapped by every scenario validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// SimulationMeta holds the identity and timing parameters for a simulation run.
type SimulationMeta struct {
	SimulationID string  `json:"simulation_id" toml:"simulation_id"` // generated when empty
	RunTime      float64 `json:"run_time" toml:"run_time"`           // seconds
	TimeStep     float64 `json:"time_step" toml:"time_step"`         // seconds
}

// InputSegment holds a movement input over [Start, End).
type InputSegment struct {
	Start     float64       `json:"start" toml:"start"` // seconds
	End       float64       `json:"end" toml:"end"`     // seconds
	Direction mgl64.Vec3    `json:"direction" toml:"direction"`
	Mode      movement.Mode `json:"mode,omitempty" toml:"mode"` // walking when empty
}

func (s InputSegment) active(t float64) bool {
	return t >= s.Start && t < s.End
}

// Action is a manual controller call scheduled by a scenario.
type Action string

const (
	ActionStart           Action = "start"
	ActionStop            Action = "stop"
	ActionPlant           Action = "plant"
	ActionJump            Action = "jump"
	ActionPivotFrom       Action = "pivot_from"
	ActionPivotTo         Action = "pivot_to"
	ActionTurnInPlaceFrom Action = "turn_in_place_from"
	ActionTurnInPlaceTo   Action = "turn_in_place_to"
	ActionStopMatching    Action = "stop_matching"
)

func (a Action) valid() bool {
	switch a {
	case ActionStart, ActionStop, ActionPlant, ActionJump, ActionPivotFrom, ActionPivotTo,
		ActionTurnInPlaceFrom, ActionTurnInPlaceTo, ActionStopMatching:
		return true
	}
	return false
}

// Event is a manual trigger fired in the step whose interval contains Time.
type Event struct {
	Time      float64    `json:"time" toml:"time"` // seconds
	Action    Action     `json:"action" toml:"action"`
	// Direction is the target facing of turn_in_place_to.
	Direction mgl64.Vec3 `json:"direction" toml:"direction"`
	// Marker is the target of jump.
	Marker    mgl64.Vec3 `json:"marker" toml:"marker"`
}

// AnimationInput is the animation driven by the controller's distance, with its
// player settings. It is ignored when it has no curves.
type AnimationInput struct {
	curve.Animation
	Settings playback.Settings `json:"settings" toml:"settings"`
}

func (a AnimationInput) present() bool { return len(a.Curves) > 0 }

// SimulationInput is the JSON or TOML serialisable input to the engine.
type SimulationInput struct {
	Meta       SimulationMeta      `json:"simulation_meta" toml:"simulation_meta"`
	Character  movement.Definition `json:"character" toml:"character"`
	Controller matching.Config     `json:"controller" toml:"controller"`
	Inputs     []InputSegment      `json:"inputs" toml:"inputs"`
	Events     []Event             `json:"events" toml:"events"`
	Animation  AnimationInput      `json:"animation" toml:"animation"`
}

// DefaultInput returns an input whose unset fields decode to the package defaults.
func DefaultInput() SimulationInput {
	return SimulationInput{
		Meta:       SimulationMeta{RunTime: 5, TimeStep: 1.0 / 60},
		Character:  movement.DefaultDefinition(),
		Controller: matching.DefaultConfig(),
		Animation:  AnimationInput{Settings: playback.DefaultSettings()},
	}
}

// Validate reports the first problem with the scenario.
func (in SimulationInput) Validate() error {
	switch {
	case in.Meta.TimeStep <= 0:
		return fmt.Errorf("%w: time_step %v must be positive", ErrInvalidScenario, in.Meta.TimeStep)
	case in.Meta.RunTime < 0:
		return fmt.Errorf("%w: run_time %v is negative", ErrInvalidScenario, in.Meta.RunTime)
	}
	for i, seg := range in.Inputs {
		if seg.End < seg.Start {
			return fmt.Errorf("%w: input %d ends before it starts", ErrInvalidScenario, i)
		}
	}
	for i, ev := range in.Events {
		if !ev.Action.valid() {
			return fmt.Errorf("%w: event %d has unknown action %q", ErrInvalidScenario, i, ev.Action)
		}
	}
	if err := in.Controller.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if in.Animation.present() {
		if err := in.Animation.Settings.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
		}
	}
	return nil
}

// SimulationLogRow is the state of the character and its matching at one timestep.
type SimulationLogRow struct {
	Timestamp float64          `json:"timestamp"` // seconds
	Character movement.Log     `json:"character"`
	Matching  matching.State   `json:"matching"`
	Trigger   matching.Trigger `json:"trigger"`
	// MarkerDistance is measured from the character's absolute state.
	MarkerDistance float64  `json:"marker_distance"`
	PlaybackTime   *float64 `json:"playback_time,omitempty"`
	Matched        bool     `json:"matched,omitempty"`
}

// SimulationLog is the complete output of a simulation run.
type SimulationLog struct {
	Meta   SimulationMeta     `json:"simulation_meta"`
	Output []SimulationLogRow `json:"output"`
}
