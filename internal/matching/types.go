package matching

import "fmt"

// Phase describes how distance to the marker is being measured.
type Phase uint8

const (
	PhaseNone     Phase = iota
	PhaseBackward       // counting up (negative) away from a past marker
	PhaseForward        // counting down (positive) toward a future marker
	PhaseBoth           // approaching a marker, then moving away from it
)

var phaseNames = [...]string{"none", "backward", "forward", "both"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// RGB is a display colour.
type RGB struct {
	R, G, B uint8
}

// DebugColor is the colour a renderer should use for a marker in this phase.
func (p Phase) DebugColor() RGB {
	switch p {
	case PhaseForward:
		return RGB{0, 255, 0}
	case PhaseBoth:
		return RGB{169, 7, 228}
	default:
		return RGB{0, 0, 255}
	}
}

// Basis selects whether the marker is a point or a facing direction.
type Basis uint8

const (
	BasisPositional Basis = iota // distance in world units
	BasisRotational              // distance in degrees of yaw
)

var basisNames = [...]string{"positional", "rotational"}

func (b Basis) String() string {
	if int(b) < len(basisNames) {
		return basisNames[b]
	}
	return fmt.Sprintf("basis(%d)", uint8(b))
}

func (b Basis) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Basis) UnmarshalText(text []byte) error {
	for i, name := range basisNames {
		if name == string(text) {
			*b = Basis(i)
			return nil
		}
	}
	return fmt.Errorf("unknown basis %q", text)
}

// Trigger is the event that produced the current phase. It is edge-triggered: read it
// once with GetAndConsumeTriggeredTransition.
type Trigger uint8

const (
	TriggerNone Trigger = iota
	TriggerStart
	TriggerStop
	TriggerPlant
	TriggerJump
	TriggerTurnInPlace
	TriggerPivot
)

var triggerNames = [...]string{"none", "start", "stop", "plant", "jump", "turn_in_place", "pivot"}

func (t Trigger) String() string {
	if int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return fmt.Sprintf("trigger(%d)", uint8(t))
}

func (t Trigger) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Trigger) UnmarshalText(text []byte) error {
	for i, name := range triggerNames {
		if name == string(text) {
			*t = Trigger(i)
			return nil
		}
	}
	return fmt.Errorf("unknown trigger %q", text)
}
