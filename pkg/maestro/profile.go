package maestro

import (
	"fmt"
	"math"
)

// Profile describes one servo's pulse range in quarter-microseconds.
type Profile struct {
	Min     int
	Neutral int
	Max     int
}

var (
	// Standard covers common positional hobby servos (1.0 to 2.0 ms).
	Standard = Profile{Min: 4000, Neutral: 6000, Max: 8000}

	// FS90R matches the FeeTech FS90R continuous-rotation servo
	// (0.7 to 2.3 ms, stopped at 1.5 ms).
	FS90R = Profile{Min: 2800, Neutral: 6000, Max: 9200}
)

// ProfileByName maps a config/CLI profile name to a Profile.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", "standard":
		return Standard, nil
	case "fs90r":
		return FS90R, nil
	default:
		return Profile{}, fmt.Errorf("unknown servo profile %q", name)
	}
}

// Validate checks Min <= Neutral <= Max and that all pulses are positive.
func (p Profile) Validate() error {
	if p.Min <= 0 {
		return fmt.Errorf("profile min pulse must be > 0, got %d", p.Min)
	}
	if p.Min > p.Neutral || p.Neutral > p.Max {
		return fmt.Errorf("profile pulses must satisfy min <= neutral <= max, got %d/%d/%d", p.Min, p.Neutral, p.Max)
	}
	return nil
}

// Clamp bounds target to the profile's pulse range.
func (p Profile) Clamp(target int) int {
	if target < p.Min {
		return p.Min
	}
	if target > p.Max {
		return p.Max
	}
	return target
}

// Target converts a direction and a normalized speed into a pulse.
// Speed is clamped to [0, 1]; full speed reaches the profile extreme
// for that direction and zero speed (or direction Stop) is Neutral.
func (p Profile) Target(dir Direction, speed float64) int {
	if speed < 0 {
		speed = 0
	} else if speed > 1 {
		speed = 1
	}

	var extreme int
	switch {
	case dir > 0:
		extreme = p.Max
	case dir < 0:
		extreme = p.Min
	default:
		return p.Neutral
	}
	return p.Neutral + int(math.Round(float64(extreme-p.Neutral)*speed))
}
