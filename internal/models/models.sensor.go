package models

import (
	"strings"
	"time"
)

// SensorType is the closed set of sensor kinds.
type SensorType int

const (
	SensorTypeOne   SensorType = 1
	SensorTypeTwo   SensorType = 2
	SensorTypeThree SensorType = 3
)

// MaxSensorNameLength bounds Sensor.Name.
const MaxSensorNameLength = 500

// Valid reports whether t is one of the known sensor types.
func (t SensorType) Valid() bool {
	return t >= SensorTypeOne && t <= SensorTypeThree
}

type Sensor struct {
	ID         int64      `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	SensorType SensorType `json:"sensor_type" db:"sensor_type"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// SensorPatch carries the fields of a partial sensor update. Nil fields are left untouched.
type SensorPatch struct {
	Name       *string     `json:"name"`
	SensorType *SensorType `json:"sensor_type"`
}

// Apply copies the set fields of p onto s.
func (p SensorPatch) Apply(s *Sensor) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.SensorType != nil {
		s.SensorType = *p.SensorType
	}
}

// Normalize trims the sensor name in place.
func (s *Sensor) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
}
