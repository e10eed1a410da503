package spec

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var valueType = reflect.TypeOf(Value{})

// valueHook wraps whatever was decoded for a Value field without converting
// it. Conversion errors surface later, per field, in the checks.
func valueHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != valueType {
		return data, nil
	}

	switch v := data.(type) {
	case Value:
		return v, nil
	case *Value:
		if v == nil {
			return Value{}, nil
		}
		return *v, nil
	default:
		return Value{raw: data}, nil
	}
}

func decodeRecord(input any, out any) error {
	cfg := &mapstructure.DecoderConfig{
		DecodeHook:       valueHook,
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

// DecodeRequirement reads a requirement from an untyped record such as a
// parsed JSON or YAML document.
func DecodeRequirement(record map[string]any) (Requirement, error) {
	var req Requirement
	if record == nil {
		return req, nil
	}

	if err := decodeRecord(record, &req); err != nil {
		return Requirement{}, fmt.Errorf("decode requirement: %w", err)
	}

	return req, nil
}

// DecodeCandidate reads a single candidate record. A record that cannot be
// decoded is still returned, marked malformed, so that batch processing can
// report it instead of aborting.
func DecodeCandidate(record any) Candidate {
	switch c := record.(type) {
	case Candidate:
		return c
	case *Candidate:
		if c != nil {
			return *c
		}
	}

	if record == nil || reflect.ValueOf(record).Kind() != reflect.Map {
		return Candidate{malformed: fmt.Errorf("record is %T, not a key-value record", record)}
	}

	var c Candidate
	if err := decodeRecord(record, &c); err != nil {
		c.malformed = err
	}

	return c
}

// DecodeCandidates reads a sequence of candidate records. Anything other than
// a slice or array is a caller error and fails with ErrInvalidArgument.
func DecodeCandidates(input any) ([]Candidate, error) {
	if input == nil {
		return nil, NewInvalidArgumentError("candidates", "nil is not a sequence")
	}

	if typed, ok := input.([]Candidate); ok {
		return append([]Candidate(nil), typed...), nil
	}

	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, NewInvalidArgumentError("candidates", fmt.Sprintf("%T is not a sequence", input))
	}

	out := make([]Candidate, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, DecodeCandidate(rv.Index(i).Interface()))
	}

	return out, nil
}

// MarkMalformed returns a candidate that the ranker rejects as unreadable.
func MarkMalformed(c Candidate, err error) Candidate {
	c.malformed = err
	return c
}
