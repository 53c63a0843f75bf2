// Package matching tracks a character's distance to a motion marker.
//
// A Controller watches per-frame locomotion signals, decides which motion phase is
// active (start, stop, plant, pivot, turn in place, jump), asks the kinematics
// predictor for the marker at each transition and then, every tick, subtracts the
// frame's displacement from a running distance-to-marker. Downstream players read that
// distance to pick an animation time.
//
// A Controller is owned by one character and ticked from one goroutine. Calling two
// triggers in the same tick is allowed; the last one wins.
package matching

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cxd309/dm-engine/internal/kinematics"
)

// MaxInstanceID is the largest episode id before it wraps to zero.
const MaxInstanceID = 1_000_000

const (
	// triggerEpsilonSq is the squared speed/acceleration treated as zero by the detector.
	triggerEpsilonSq = 0.001

	// pivotEpsilonSq is the squared acceleration below which a pivot has no direction.
	pivotEpsilonSq = 0.0001
)

// ErrMissingCollaborator is returned by New when the actor or movement is nil.
var ErrMissingCollaborator = errors.New("distance matching needs an actor and a movement model")

// Actor is the tracked character's transform.
type Actor interface {
	Location() mgl64.Vec3
	Forward() mgl64.Vec3
}

// Movement is the movement-simulation collaborator read every tick.
type Movement interface {
	Velocity() mgl64.Vec3
	Acceleration() mgl64.Vec3
	PhysicalParams() kinematics.PhysicalParams
	// Walking reports whether the character is in the only supported movement mode.
	Walking() bool
}

// State is a snapshot of a Controller.
type State struct {
	Phase              Phase      `json:"phase"`
	Basis              Basis      `json:"basis"`
	Marker             mgl64.Vec3 `json:"marker"`
	DistanceToMarker   float64    `json:"distance_to_marker"`
	TimeToMarker       float64    `json:"time_to_marker"`
	InstanceID         uint32     `json:"instance_id"`
	DestinationReached bool       `json:"destination_reached"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger transitions are written to.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller is the distance matching state machine for one character.
type Controller struct {
	cfg      Config
	actor    Actor
	movement Movement
	logger   zerolog.Logger

	phase   Phase
	basis   Basis
	trigger Trigger

	marker             mgl64.Vec3
	distanceToMarker   float64
	timeToMarker       float64
	destinationReached bool
	instanceID         uint32

	lastPosition mgl64.Vec3
	lastForward  mgl64.Vec3
	lastAccelSq  float64
}

// New validates cfg and returns an idle Controller.
func New(cfg Config, actor Actor, movement Movement, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if actor == nil || movement == nil {
		return nil, ErrMissingCollaborator
	}
	c := &Controller{
		cfg:          cfg,
		actor:        actor,
		movement:     movement,
		logger:       log.Logger,
		lastPosition: actor.Location(),
		lastForward:  actor.Forward(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the controller's configuration.
func (c *Controller) Config() Config { return c.cfg }

// Phase returns the active phase.
func (c *Controller) Phase() Phase { return c.phase }

// Basis returns whether the marker is positional or rotational.
func (c *Controller) Basis() Basis { return c.basis }

// Marker returns the marker location (positional) or direction (rotational).
func (c *Controller) Marker() mgl64.Vec3 { return c.marker }

// DistanceToMarker returns the signed running distance: positive while the marker is
// ahead, negative once it is behind.
func (c *Controller) DistanceToMarker() float64 { return c.distanceToMarker }

// TimeToMarker returns the predicted seconds to the marker, negative for a past marker.
func (c *Controller) TimeToMarker() float64 { return c.timeToMarker }

// InstanceID identifies the current episode. It changes on every transition.
func (c *Controller) InstanceID() uint32 { return c.instanceID }

// DestinationReached reports whether a Both episode has passed its marker.
func (c *Controller) DestinationReached() bool { return c.destinationReached }

// Snapshot returns the controller's current state.
func (c *Controller) Snapshot() State {
	return State{
		Phase:              c.phase,
		Basis:              c.basis,
		Marker:             c.marker,
		DistanceToMarker:   c.distanceToMarker,
		TimeToMarker:       c.timeToMarker,
		InstanceID:         c.instanceID,
		DestinationReached: c.destinationReached,
	}
}

// GetAndConsumeTriggeredTransition returns the pending trigger and clears it.
func (c *Controller) GetAndConsumeTriggeredTransition() Trigger {
	t := c.trigger
	c.trigger = TriggerNone
	return t
}

// MatchesFeature reports whether a recorded feature with this phase, basis and trigger
// describes the controller's current state.
func (c *Controller) MatchesFeature(phase Phase, basis Basis, trigger Trigger) bool {
	return phase == c.phase && basis == c.basis && trigger == c.trigger
}

// MarkerDistance measures the distance to the marker from the actor's absolute state:
// world units for a positional marker, degrees for a rotational one. It is 0 when no
// phase is active and never feeds back into DistanceToMarker.
func (c *Controller) MarkerDistance() float64 {
	if c.phase == PhaseNone {
		return 0
	}
	if c.basis == BasisRotational {
		return kinematics.AngleDegrees(c.actor.Forward(), c.marker)
	}
	return kinematics.Distance(c.actor.Location(), c.marker)
}

// Tick advances the running distance by this frame's displacement. Outside the walking
// mode any active phase is stopped.
func (c *Controller) Tick(dt float64) {
	if !c.movement.Walking() {
		if c.phase != PhaseNone {
			c.Stop()
		}
		return
	}

	if c.cfg.AutomaticTriggers {
		c.DetectTransitions(dt)
	}

	if c.phase == PhaseNone {
		return
	}

	delta := c.frameDelta()
	switch c.phase {
	case PhaseBackward:
		c.distanceToMarker -= delta
	case PhaseForward:
		c.distanceToMarker -= delta
		if c.distanceToMarker < c.cfg.DistanceTolerance {
			c.distanceToMarker = 0
			c.Stop()
		}
	case PhaseBoth:
		c.distanceToMarker -= delta
		if !c.destinationReached && c.distanceToMarker < c.cfg.DistanceTolerance {
			c.distanceToMarker = 0
			c.destinationReached = true
		}
	default:
		c.distanceToMarker = 0
	}
}

// frameDelta returns the displacement since the previous tick in the basis' units and
// records the current transform.
func (c *Controller) frameDelta() float64 {
	loc, fwd := c.actor.Location(), c.actor.Forward()
	var delta float64
	if c.basis == BasisRotational {
		delta = kinematics.AngleDegrees(c.lastForward, fwd)
	} else {
		delta = kinematics.Distance(loc, c.lastPosition)
	}
	c.lastPosition, c.lastForward = loc, fwd
	return delta
}

// DetectTransitions checks, in order, for a start, a stop and a plant, and fires at
// most one of them.
func (c *Controller) DetectTransitions(dt float64) {
	vel := c.movement.Velocity()
	accel := c.movement.Acceleration()
	speedSq := kinematics.SizeSq(vel)
	accelSq := kinematics.SizeSq(accel)

	lastAccelSq := c.lastAccelSq
	c.lastAccelSq = accelSq

	switch {
	case c.phase != PhaseBackward && lastAccelSq < triggerEpsilonSq && accelSq > triggerEpsilonSq:
		c.TriggerStart(dt)
	case c.phase != PhaseForward && speedSq > triggerEpsilonSq && accelSq < triggerEpsilonSq:
		c.TriggerStop(dt)
	case c.phase != PhaseBoth && c.plantDetected(vel, accel, speedSq, accelSq):
		c.TriggerPlant(dt)
	}
}

func (c *Controller) plantDetected(vel, accel mgl64.Vec3, speedSq, accelSq float64) bool {
	if speedSq <= c.cfg.MinPlantSpeed*c.cfg.MinPlantSpeed || accelSq <= c.cfg.MinPlantAccel*c.cfg.MinPlantAccel {
		return false
	}
	return kinematics.AngleDegrees(vel, accel) > c.cfg.MinPlantDetectionAngle
}

// TriggerStart begins a Backward episode from the predicted start location, or from
// the current location when the prediction does not converge.
func (c *Controller) TriggerStart(dt float64) {
	loc := c.actor.Location()
	pred, ok := kinematics.StartLocation(loc, c.movement.Velocity(), c.movement.PhysicalParams(), dt, c.cfg.MaxIterations)
	if ok {
		c.marker = pred.Location
		c.timeToMarker = -pred.Time
	} else {
		c.marker = loc
		c.timeToMarker = 0
	}

	c.begin(PhaseBackward, BasisPositional, TriggerStart)
	c.distanceToMarker = -kinematics.Distance(loc, c.marker)
	c.logTransition()
}

// TriggerStop begins a Forward episode toward the predicted stop location. It reports
// false, leaving the state untouched, when no stop can be predicted.
func (c *Controller) TriggerStop(dt float64) bool {
	return c.triggerStopping(dt, PhaseForward, TriggerStop)
}

// TriggerPlant begins a Both episode toward the predicted stop location of a sharp
// change of direction. It reports false when no stop can be predicted.
func (c *Controller) TriggerPlant(dt float64) bool {
	return c.triggerStopping(dt, PhaseBoth, TriggerPlant)
}

func (c *Controller) triggerStopping(dt float64, phase Phase, trigger Trigger) bool {
	loc := c.actor.Location()
	pred, ok := kinematics.StopLocation(loc, c.movement.Velocity(), c.movement.Acceleration(),
		c.movement.PhysicalParams(), dt, c.cfg.MaxIterations)
	if !ok {
		return false
	}

	c.marker = pred.Location
	c.timeToMarker = pred.Time
	c.begin(phase, BasisPositional, trigger)
	c.distanceToMarker = kinematics.Distance(loc, c.marker)
	c.logTransition()
	return true
}

// TriggerPivotFrom begins a Backward rotational episode away from the current facing.
func (c *Controller) TriggerPivotFrom() {
	c.triggerRotationFrom(TriggerPivot)
}

// TriggerPivotTo begins a Forward rotational episode toward the input acceleration
// direction. It reports false when there is no meaningful acceleration.
func (c *Controller) TriggerPivotTo() bool {
	accel := kinematics.Flatten(c.movement.Acceleration())
	if kinematics.SizeSq(accel) <= pivotEpsilonSq {
		return false
	}
	c.triggerRotationTo(accel, TriggerPivot)
	return true
}

// TriggerTurnInPlaceFrom begins a Backward rotational episode away from the current facing.
func (c *Controller) TriggerTurnInPlaceFrom() {
	c.triggerRotationFrom(TriggerTurnInPlace)
}

// TriggerTurnInPlaceTo begins a Forward rotational episode toward direction, typically
// the camera's facing.
func (c *Controller) TriggerTurnInPlaceTo(direction mgl64.Vec3) {
	c.triggerRotationTo(direction, TriggerTurnInPlace)
}

func (c *Controller) triggerRotationFrom(trigger Trigger) {
	c.marker = kinematics.SafeNormal(c.actor.Forward())
	c.timeToMarker = 0
	c.begin(PhaseBackward, BasisRotational, trigger)
	c.distanceToMarker = 0
	c.logTransition()
}

func (c *Controller) triggerRotationTo(direction mgl64.Vec3, trigger Trigger) {
	c.marker = kinematics.SafeNormal(kinematics.Flatten(direction))
	c.timeToMarker = 0
	c.begin(PhaseForward, BasisRotational, trigger)
	c.distanceToMarker = kinematics.AngleDegrees(c.actor.Forward(), c.marker)
	c.logTransition()
}

// TriggerJump begins a Both episode toward a caller-supplied marker such as a
// predicted take-off or landing point. Nothing is predicted here.
func (c *Controller) TriggerJump(marker mgl64.Vec3) {
	c.marker = marker
	c.timeToMarker = 0
	c.begin(PhaseBoth, BasisPositional, TriggerJump)
	c.distanceToMarker = kinematics.Distance(c.actor.Location(), marker)
	c.logTransition()
}

// Stop ends the current episode.
func (c *Controller) Stop() {
	c.phase = PhaseNone
	c.trigger = TriggerNone
	c.destinationReached = false
	c.distanceToMarker = 0
	c.nextInstance()
	c.logger.Debug().Uint32("instance", c.instanceID).Msg("distance matching stopped")
}

// begin records the phase transition and the transform distances are measured from.
func (c *Controller) begin(phase Phase, basis Basis, trigger Trigger) {
	c.phase = phase
	c.basis = basis
	c.trigger = trigger
	c.destinationReached = false
	c.lastPosition = c.actor.Location()
	c.lastForward = c.actor.Forward()
	c.nextInstance()
}

func (c *Controller) nextInstance() {
	c.instanceID++
	if c.instanceID > MaxInstanceID {
		c.instanceID = 0
	}
}

func (c *Controller) logTransition() {
	c.logger.Debug().
		Stringer("trigger", c.trigger).
		Stringer("phase", c.phase).
		Stringer("basis", c.basis).
		Uint32("instance", c.instanceID).
		Float64("distance", c.distanceToMarker).
		Float64("time", c.timeToMarker).
		Msg("distance matching transition")
}
