package ingest

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MinTemperature = -100.0
	MaxTemperature = 200.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0

	// MaxNameLength matches the events.name column width.
	MaxNameLength = 255
)

var (
	ErrMissingSensorID       = errors.New("missing sensor_id")
	ErrNoParameters          = errors.New("record has no parameters")
	ErrSensorIDNotInteger    = errors.New("sensor_id not an integer")
	ErrSensorIDNotPositive   = errors.New("sensor_id must be > 0")
	ErrEmptyName             = errors.New("name is empty")
	ErrNameTooLong           = errors.New("name is too long")
	ErrTemperatureNotNumber  = errors.New("temperature not a number")
	ErrTemperatureOutOfRange = errors.New("temperature out of range")
	ErrHumidityNotNumber     = errors.New("humidity not a number")
	ErrHumidityOutOfRange    = errors.New("humidity out of range")
)

// Record is one validated, normalized ingestion element.
type Record struct {
	SensorID    int64
	Name        string
	Temperature *float64
	Humidity    *float64
}

// ValidateRecord checks one decoded JSON object and returns its normalized form.
// Rules run in a fixed order and stop at the first failure.
//
// Presence is judged by truthiness: null, false, 0, "" and empty containers all
// count as absent, so a record whose only readings are 0 has no parameters.
// A falsy number next to a truthy partner is still stored as 0.
func ValidateRecord(raw map[string]any) (Record, error) {
	sensorRaw := raw["sensor_id"]
	temperatureRaw := raw["temperature"]
	humidityRaw := raw["humidity"]

	if !truthy(sensorRaw) {
		return Record{}, ErrMissingSensorID
	}
	if !truthy(temperatureRaw) && !truthy(humidityRaw) {
		return Record{}, ErrNoParameters
	}

	sensorID, ok := toInt(sensorRaw)
	if !ok {
		return Record{}, ErrSensorIDNotInteger
	}
	if sensorID <= 0 {
		return Record{}, ErrSensorIDNotPositive
	}

	name := strings.TrimSpace(toString(raw["name"]))
	if name == "" {
		return Record{}, ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return Record{}, ErrNameTooLong
	}

	rec := Record{SensorID: sensorID, Name: name}

	if truthy(temperatureRaw) {
		t, ok := toFloat(temperatureRaw)
		if !ok {
			return Record{}, ErrTemperatureNotNumber
		}
		if !inRange(t, MinTemperature, MaxTemperature) {
			return Record{}, ErrTemperatureOutOfRange
		}
		rec.Temperature = &t
	} else {
		rec.Temperature = zeroReading(temperatureRaw)
	}

	if truthy(humidityRaw) {
		h, ok := toFloat(humidityRaw)
		if !ok {
			return Record{}, ErrHumidityNotNumber
		}
		if !inRange(h, MinHumidity, MaxHumidity) {
			return Record{}, ErrHumidityOutOfRange
		}
		rec.Humidity = &h
	} else {
		rec.Humidity = zeroReading(humidityRaw)
	}

	return rec, nil
}

// zeroReading keeps an untruthy numeric reading (0, -0.0, false) as 0.
// Null, absent and empty values stay absent.
func zeroReading(v any) *float64 {
	switch v.(type) {
	case json.Number, float64, bool:
		zero := 0.0
		return &zero
	default:
		return nil
	}
}

// inRange is false for NaN.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			// out of float range is still a non-zero number
			return math.IsInf(f, 0)
		}
		return f != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func isIntegerLiteral(s string) bool {
	return !strings.ContainsAny(s, ".eE")
}

// toInt accepts integers, floats (truncated toward zero), decimal strings and true.
func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		s := x.String()
		if isIntegerLiteral(s) {
			n, err := strconv.ParseInt(s, 10, 64)
			return n, err == nil
		}
		return truncate(s)
	case float64:
		return truncateFloat(x)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func truncate(s string) (int64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return truncateFloat(f)
}

func truncateFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int64(t), true
}

// toFloat accepts numbers, numeric strings (including inf and nan) and true.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		return parseFloat(x.String())
	case float64:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if strings.Contains(strings.ToLower(s), "0x") {
			return 0, false
		}
		return parseFloat(s)
	default:
		return 0, false
	}
}

// parseFloat maps overflow to ±Inf so it fails the range check instead of the type check.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// toString coerces a name. Null and absent names become "None", booleans
// become "True" or "False".
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
