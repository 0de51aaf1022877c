package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxEventNameLength bounds Event.Name.
	MaxEventNameLength = 255

	// Storage bounds, mirrored by the temperature_range and humidity_range CHECK constraints.
	MinTemperature = -200.0
	MaxTemperature = 200.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// Event is a single reading reported by a sensor.
type Event struct {
	ID          int64     `json:"id" db:"id"`
	SensorID    int64     `json:"sensor" db:"sensor_id"`
	Name        string    `json:"name" db:"name"`
	Temperature *float64  `json:"temperature" db:"temperature"`
	Humidity    *float64  `json:"humidity" db:"humidity"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// EventPatch carries the fields of a partial event update.
type EventPatch struct {
	SensorID    *int64   `json:"sensor"`
	Name        *string  `json:"name"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// Apply copies the set fields of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.SensorID != nil {
		e.SensorID = *p.SensorID
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Temperature != nil {
		e.Temperature = p.Temperature
	}
	if p.Humidity != nil {
		e.Humidity = p.Humidity
	}
}

// Normalize trims the event name in place.
func (e *Event) Normalize() {
	e.Name = strings.TrimSpace(e.Name)
}

// Validate checks the storage-level bounds of an event. It does not enforce
// that a reading is present; callers that accept user input do that.
func (e *Event) Validate() error {
	if e.SensorID <= 0 {
		return fmt.Errorf("sensor must be a positive id")
	}
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len([]rune(e.Name)) > MaxEventNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxEventNameLength)
	}
	if e.Temperature != nil && (*e.Temperature < MinTemperature || *e.Temperature > MaxTemperature) {
		return fmt.Errorf("temperature must be between %v and %v", MinTemperature, MaxTemperature)
	}
	if e.Humidity != nil && (*e.Humidity < MinHumidity || *e.Humidity > MaxHumidity) {
		return fmt.Errorf("humidity must be between %v and %v", MinHumidity, MaxHumidity)
	}
	return nil
}
