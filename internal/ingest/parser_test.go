package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestParseBytes_ParseErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"garbage", []byte("invalid json content"), "invalid JSON: "},
		{"empty", []byte("   "), "invalid JSON: empty document"},
		{"truncated", []byte(`[{"sensor_id":1`), "invalid JSON: "},
		{"trailing data", []byte(`[] []`), "invalid JSON: unexpected data"},
		{"object root", []byte(`{"sensor_id":1}`), "expected a JSON array"},
		{"string root", []byte(`"events"`), "expected a JSON array"},
		{"bad utf8", []byte{'[', '"', 0xff, '"', ']'}, "invalid JSON: upload is not valid UTF-8"},
		{"nan literal", []byte(`[{"sensor_id":1,"name":"a","temperature":NaN}]`), "invalid JSON: "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, problems, err := ParseBytes(tc.data)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("ParseBytes() error = %v, want *ParseError", err)
			}
			if !strings.HasPrefix(parseErr.Error(), tc.want) {
				t.Errorf("ParseBytes() error = %q, want prefix %q", parseErr.Error(), tc.want)
			}
			if records != nil || problems != nil {
				t.Errorf("ParseBytes() returned partial output %v / %v", records, problems)
			}
		})
	}
}

func TestParseBytes_PerElement(t *testing.T) {
	data := []byte(`[
		{"sensor_id":1,"name":"ok1","temperature":20},
		42,
		{"name":"no id","humidity":10},
		["not", "an", "object"],
		{"sensor_id":2,"name":"ok2","humidity":30},
		{"sensor_id":3,"name":"hot","temperature":201}
	]`)

	records, problems, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}

	if len(records) != 2 || records[0].Name != "ok1" || records[1].Name != "ok2" {
		t.Errorf("records = %+v, want ok1 then ok2", records)
	}
	want := []string{
		"#2: element is not an object",
		"#3: missing sensor_id",
		"#4: element is not an object",
		"#6: temperature out of range",
	}
	if len(problems) != len(want) {
		t.Fatalf("problems = %v, want %v", problems, want)
	}
	for i := range want {
		if problems[i] != want[i] {
			t.Errorf("problems[%d] = %q, want %q", i, problems[i], want[i])
		}
	}
}

func TestParseBytes_EmptyArray(t *testing.T) {
	records, problems, err := ParseBytes([]byte(` [ ] `))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(records) != 0 || len(problems) != 0 {
		t.Errorf("ParseBytes([]) = %v, %v, want empty", records, problems)
	}
	if problems == nil {
		t.Error("problems = nil, want empty slice")
	}
}

func TestParse_Reader(t *testing.T) {
	records, _, err := Parse(strings.NewReader(`[{"sensor_id":"5","name":"r","humidity":"12.5"}]`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 || records[0].SensorID != 5 || *records[0].Humidity != 12.5 {
		t.Errorf("Parse() = %+v", records)
	}
}
