// Package moisture converts raw capacitive soil sensor readings into a
// moisture percentage.
package moisture

import (
	"fmt"
	"math"
)

// Unavailable is recorded as the percentage when no reading could be taken.
const Unavailable = -1.0

// Default calibration for the ESP32 ADC with a capacitive sensor: dry soil
// reads high, saturated soil reads low.
const (
	DefaultDry = 2500
	DefaultWet = 800
)

// Calibration holds the raw readings that map to 0% (Dry) and 100% (Wet).
type Calibration struct {
	Dry int
	Wet int
}

// DefaultCalibration returns the calibration used when none is configured.
func DefaultCalibration() Calibration {
	return Calibration{Dry: DefaultDry, Wet: DefaultWet}
}

func (c Calibration) Validate() error {
	if c.Dry <= c.Wet {
		return fmt.Errorf("dry value %d must be greater than wet value %d", c.Dry, c.Wet)
	}
	return nil
}

// Percent clamps raw into [Wet, Dry] and maps it linearly onto [0, 100], with
// Wet at 100 and Dry at 0, rounded to two decimals. An invalid calibration
// yields Unavailable.
func (c Calibration) Percent(raw int) float64 {
	if c.Validate() != nil {
		return Unavailable
	}
	raw = min(max(raw, c.Wet), c.Dry)
	scaled := 100.0 * float64(c.Dry-raw) / float64(c.Dry-c.Wet)
	return math.Round(scaled*100) / 100
}
