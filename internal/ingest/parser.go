package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ParseError reports an upload that is not a well formed JSON array.
// It fails the whole request.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads r to the end and parses it with ParseBytes.
func Parse(r io.Reader) ([]Record, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes data as a JSON array and validates every element.
// Valid records and per-element error strings are returned in input order;
// element positions in the messages are 1-based.
func ParseBytes(data []byte) ([]Record, []string, error) {
	if !utf8.Valid(data) {
		return nil, nil, &ParseError{Msg: "invalid JSON: upload is not valid UTF-8"}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &ParseError{Msg: "invalid JSON: empty document", Err: err}
		}
		return nil, nil, &ParseError{Msg: "invalid JSON: " + err.Error(), Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, &ParseError{Msg: "invalid JSON: unexpected data after top-level value", Err: err}
	}

	elements, ok := doc.([]any)
	if !ok {
		return nil, nil, &ParseError{Msg: "expected a JSON array"}
	}

	records := make([]Record, 0, len(elements))
	problems := make([]string, 0)
	for i, element := range elements {
		idx := i + 1
		obj, ok := element.(map[string]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("#%d: element is not an object", idx))
			continue
		}
		rec, err := ValidateRecord(obj)
		if err != nil {
			problems = append(problems, fmt.Sprintf("#%d: %s", idx, err))
			continue
		}
		records = append(records, rec)
	}
	return records, problems, nil
}
