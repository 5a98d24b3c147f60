package overkiz

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DataType is the Overkiz state value type tag.
type DataType int

const (
	DataTypeNone       DataType = 0
	DataTypeInteger    DataType = 1
	DataTypeFloat      DataType = 2
	DataTypeString     DataType = 3
	DataTypeBoolean    DataType = 6
	DataTypeJSONArray  DataType = 10
	DataTypeJSONObject DataType = 11
)

// Value is a raw device state value. It is one of StringValue, NumberValue,
// BoolValue or RecordValue.
type Value interface {
	isValue()
}

type StringValue string

type NumberValue float64

type BoolValue bool

// RecordValue is a small record valued state such as io:VentilationModeState
// ({"cooling": "off", "prog": "on"}).
type RecordValue map[string]string

func (StringValue) isValue() {}
func (NumberValue) isValue() {}
func (BoolValue) isValue()   {}
func (RecordValue) isValue() {}

// Get returns the sub-field, or "" when the record doesn't carry it.
func (r RecordValue) Get(field string) string {
	return r[field]
}

// With returns a copy of the record with field set to value.
func (r RecordValue) With(field, value string) RecordValue {
	out := make(RecordValue, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[field] = value

	return out
}

// State is a single named state as found in device events.
type State struct {
	Name  string          `json:"name"`
	Type  DataType        `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Decode resolves the raw JSON value according to its type tag. JSON arrays
// are kept as their compact JSON text.
func (s State) Decode() (Value, error) {
	if len(s.Value) == 0 || string(s.Value) == "null" {
		return nil, nil
	}

	switch s.Type {
	case DataTypeInteger, DataTypeFloat:
		var n float64
		if err := json.Unmarshal(s.Value, &n); err != nil {
			return nil, fmt.Errorf("state %v: %w", s.Name, err)
		}
		return NumberValue(n), nil
	case DataTypeString:
		var str string
		if err := json.Unmarshal(s.Value, &str); err != nil {
			return nil, fmt.Errorf("state %v: %w", s.Name, err)
		}
		return StringValue(str), nil
	case DataTypeBoolean:
		var b bool
		if err := json.Unmarshal(s.Value, &b); err != nil {
			return nil, fmt.Errorf("state %v: %w", s.Name, err)
		}
		return BoolValue(b), nil
	case DataTypeJSONArray:
		var buf bytes.Buffer
		if err := json.Compact(&buf, s.Value); err != nil {
			return nil, fmt.Errorf("state %v: %w", s.Name, err)
		}
		return StringValue(buf.String()), nil
	case DataTypeJSONObject:
		var fields map[string]interface{}
		if err := json.Unmarshal(s.Value, &fields); err != nil {
			return nil, fmt.Errorf("state %v: %w", s.Name, err)
		}
		record := make(RecordValue, len(fields))
		for k, v := range fields {
			record[k] = fmt.Sprintf("%v", v)
		}
		return record, nil
	default:
		return nil, fmt.Errorf("state %v: unsupported data type %v", s.Name, s.Type)
	}
}

// Event is a gateway event. Only DeviceStateChangedEvent carries states.
type Event struct {
	Name         string  `json:"name"`
	DeviceURL    string  `json:"deviceURL"`
	DeviceStates []State `json:"deviceStates"`
}

const DeviceStateChangedEvent = "DeviceStateChangedEvent"

type Command struct {
	Name       string        `json:"name"`
	Parameters []interface{} `json:"parameters"`
}

type action struct {
	DeviceURL string    `json:"deviceURL"`
	Commands  []Command `json:"commands"`
}

type execution struct {
	Label   string   `json:"label"`
	Actions []action `json:"actions"`
}
