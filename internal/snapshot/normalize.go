// Package snapshot turns raw channel payloads into ordered record lists.
//
// Publishers on the same channel have been seen sending a JSON array, an
// object keyed by identifier, or a lone record. Each shape is detected
// explicitly and mapped to a list; anything else degrades to "no data".
//
// An object is a keyed map when more of its values are objects than are
// scalars or arrays; null values count for neither side. Non-object values
// in a keyed map (null tombstones, stray counters) are dropped and counted
// in Snapshot.Dropped. Any other object is a lone record.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned for payloads that are not valid JSON
var ErrMalformed = errors.New("malformed snapshot payload")

// Shape is the detected top-level form of a payload
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeList          // [r1, r2, ...]
	ShapeMap           // {"k1": r1, "k2": r2, ...}
	ShapeRecord        // a single record object
	ShapeScalar        // null, number, string, bool
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeMap:
		return "map"
	case ShapeRecord:
		return "record"
	case ShapeScalar:
		return "scalar"
	default:
		return "invalid"
	}
}

// Snapshot is a normalized payload: its detected shape and the ordered records
type Snapshot struct {
	Shape   Shape
	Records []json.RawMessage
	Dropped int // non-object values left out of a keyed map
}

// Normalize detects the payload shape and returns its records in order.
// Lists pass through, keyed maps yield their values in document order,
// single records and scalars yield an empty list.
func Normalize(raw []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Snapshot{Shape: ShapeInvalid}, fmt.Errorf("%w (%d bytes)", ErrMalformed, len(raw))
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return Snapshot{Shape: ShapeInvalid}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if records == nil {
			records = []json.RawMessage{}
		}
		return Snapshot{Shape: ShapeList, Records: records}, nil
	case '{':
		values, err := objectValues(trimmed)
		if err != nil {
			return Snapshot{Shape: ShapeInvalid}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(values) == 0 {
			return Snapshot{Shape: ShapeMap, Records: values}, nil
		}
		records := make([]json.RawMessage, 0, len(values))
		scalars := 0
		for _, v := range values {
			switch {
			case isObject(v):
				records = append(records, v)
			case !isNull(v):
				scalars++
			}
		}
		if len(records) == 0 || len(records) <= scalars {
			return Snapshot{Shape: ShapeRecord, Records: []json.RawMessage{}}, nil
		}
		return Snapshot{Shape: ShapeMap, Records: records, Dropped: len(values) - len(records)}, nil
	default:
		return Snapshot{Shape: ShapeScalar, Records: []json.RawMessage{}}, nil
	}
}

// objectValues streams a JSON object and returns its values in document
// order; decoding into a Go map would lose that order.
func objectValues(data []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	values := make([]json.RawMessage, 0)
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil, err
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func isObject(v json.RawMessage) bool {
	trimmed := bytes.TrimSpace(v)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
