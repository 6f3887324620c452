package moisture

import "time"

// Pin is one sensor channel on the ESP board and the plant it watches.
type Pin struct {
	Pin       int    `mapstructure:"pin"`
	PlantName string `mapstructure:"plant_name"`
}

// Reading is the outcome of reading one plant's sensor.
type Reading struct {
	Plant string
	Pin   int
	// Raw is nil when the sensor could not be read.
	Raw     *int
	Percent float64
}

// Available reports whether the sensor produced a value.
func (r Reading) Available() bool {
	return r.Raw != nil
}

// NewReading scales raw with c.
func NewReading(plant string, pin, raw int, c Calibration) Reading {
	return Reading{Plant: plant, Pin: pin, Raw: &raw, Percent: c.Percent(raw)}
}

// MissingReading records a sensor that could not be read.
func MissingReading(plant string, pin int) Reading {
	return Reading{Plant: plant, Pin: pin, Percent: Unavailable}
}

// Row is one collection run: a reading per configured plant, in config order.
type Row struct {
	Timestamp time.Time
	Readings  []Reading
}
