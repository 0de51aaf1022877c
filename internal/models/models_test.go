package models

import (
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestEventValidate(t *testing.T) {
	cases := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"valid", Event{SensorID: 1, Name: "a", Temperature: ptr(21.5)}, false},
		{"storage lower bound", Event{SensorID: 1, Name: "a", Temperature: ptr(-200.0)}, false},
		{"below storage bound", Event{SensorID: 1, Name: "a", Temperature: ptr(-200.1)}, true},
		{"humidity above", Event{SensorID: 1, Name: "a", Humidity: ptr(100.5)}, true},
		{"missing sensor", Event{Name: "a", Humidity: ptr(10.0)}, true},
		{"empty name", Event{SensorID: 1, Humidity: ptr(10.0)}, true},
		{"long name", Event{SensorID: 1, Name: strings.Repeat("x", 256), Humidity: ptr(10.0)}, true},
	}
	for _, tc := range cases {
		err := tc.event.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestPatchApply(t *testing.T) {
	s := Sensor{ID: 1, Name: "old", SensorType: SensorTypeOne}
	SensorPatch{SensorType: ptr(SensorTypeThree)}.Apply(&s)
	if s.Name != "old" || s.SensorType != SensorTypeThree {
		t.Errorf("Apply() = %+v, want name old and type 3", s)
	}

	e := Event{ID: 2, SensorID: 1, Name: "e", Humidity: ptr(5.0)}
	EventPatch{Name: ptr("renamed")}.Apply(&e)
	if e.Name != "renamed" || e.Humidity == nil || *e.Humidity != 5.0 {
		t.Errorf("Apply() = %+v, want renamed with humidity kept", e)
	}
}

func TestPageClamp(t *testing.T) {
	p := Page{Offset: -3, Limit: 0}
	p.Clamp()
	if p.Offset != 0 || p.Limit != DefaultPageLimit {
		t.Errorf("Clamp() = %+v, want offset 0 limit %d", p, DefaultPageLimit)
	}
	p = Page{Limit: 1000}
	p.Clamp()
	if p.Limit != MaxPageLimit {
		t.Errorf("Clamp().Limit = %d, want %d", p.Limit, MaxPageLimit)
	}
}

func TestSensorTypeValid(t *testing.T) {
	for _, typ := range []SensorType{0, 1, 2, 3, 4} {
		want := typ >= 1 && typ <= 3
		if got := typ.Valid(); got != want {
			t.Errorf("SensorType(%d).Valid() = %v, want %v", typ, got, want)
		}
	}
}
