package matching

import (
	"errors"
	"fmt"

	"github.com/cxd309/dm-engine/internal/kinematics"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid distance matching config")

// Config holds the controller's tuning. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// DistanceTolerance is the distance under which a marker counts as reached.
	DistanceTolerance float64 `json:"distance_tolerance" toml:"distance_tolerance"`

	// MinPlantDetectionAngle is the angle (degrees) velocity and acceleration must
	// exceed for a plant.
	MinPlantDetectionAngle float64 `json:"min_plant_detection_angle" toml:"min_plant_detection_angle"`
	MinPlantSpeed          float64 `json:"min_plant_speed" toml:"min_plant_speed"`
	MinPlantAccel          float64 `json:"min_plant_accel" toml:"min_plant_accel"`

	// AutomaticTriggers runs DetectTransitions at the start of every Tick.
	AutomaticTriggers bool `json:"automatic_triggers" toml:"automatic_triggers"`

	// MaxIterations caps each prediction.
	MaxIterations int `json:"max_iterations" toml:"max_iterations"`
}

// DefaultConfig returns the stock tuning. Automatic triggers are off.
func DefaultConfig() Config {
	return Config{
		DistanceTolerance:      5,
		MinPlantDetectionAngle: 130,
		MinPlantSpeed:          100,
		MinPlantAccel:          100,
		MaxIterations:          kinematics.DefaultMaxIterations,
	}
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	switch {
	case c.DistanceTolerance < 0:
		return fmt.Errorf("%w: distance_tolerance %v is negative", ErrInvalidConfig, c.DistanceTolerance)
	case c.MinPlantDetectionAngle < 0 || c.MinPlantDetectionAngle > 180:
		return fmt.Errorf("%w: min_plant_detection_angle %v outside [0, 180]", ErrInvalidConfig, c.MinPlantDetectionAngle)
	case c.MinPlantSpeed < 0:
		return fmt.Errorf("%w: min_plant_speed %v is negative", ErrInvalidConfig, c.MinPlantSpeed)
	case c.MinPlantAccel < 0:
		return fmt.Errorf("%w: min_plant_accel %v is negative", ErrInvalidConfig, c.MinPlantAccel)
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max_iterations %d must be at least 1", ErrInvalidConfig, c.MaxIterations)
	}
	return nil
}
