package models

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Page is the offset/limit pair shared by list endpoints.
type Page struct {
	Offset int `schema:"offset"`
	Limit  int `schema:"limit"`
}

// Clamp applies the default and maximum limit and floors the offset at zero.
func (p *Page) Clamp() {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

// SensorFilters defines the available filter options for sensors
type SensorFilters struct {
	Page
	Search   string `schema:"search"`
	Ordering string `schema:"ordering"`
}

// EventFilters defines the available filter options for events
type EventFilters struct {
	Page
	SensorID       *int64   `schema:"sensor_id"`
	TemperatureMin *float64 `schema:"temperature_min"`
	TemperatureMax *float64 `schema:"temperature_max"`
	HumidityMin    *float64 `schema:"humidity_min"`
	HumidityMax    *float64 `schema:"humidity_max"`
	Ordering       string   `schema:"ordering"`
}

// ListResult is the pagination envelope returned by list endpoints.
type ListResult[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}
