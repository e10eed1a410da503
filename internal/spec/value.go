package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnparseable is matched by every *ParseError.
var ErrUnparseable = errors.New("unparseable value")

// ParseError reports a field value that cannot be used as the requested kind.
type ParseError struct {
	Field Field
	Want  string
	Raw   any
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot use %#v as %s", e.Raw, e.Want)
	}
	return fmt.Sprintf("field %s: cannot use %#v as %s", e.Field, e.Raw, e.Want)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrUnparseable
}

// Value holds a record field exactly as it was decoded. Conversion is done on
// demand, so a malformed value only fails the check that reads it.
type Value struct {
	raw any
}

// NewValue wraps raw. A nil raw value means the field is absent and yields nil.
func NewValue(raw any) *Value {
	if raw == nil {
		return nil
	}
	if v, ok := raw.(*Value); ok {
		return v
	}
	if v, ok := raw.(Value); ok {
		return &v
	}
	return &Value{raw: raw}
}

// Number returns a numeric value.
func Number(f float64) *Value {
	return &Value{raw: f}
}

// String returns a textual value.
func String(s string) *Value {
	return &Value{raw: s}
}

// Raw returns the value as decoded.
func (v *Value) Raw() any {
	if v == nil {
		return nil
	}
	return v.raw
}

// Float converts the value to a finite float64. Numeric strings are accepted.
func (v *Value) Float() (float64, error) {
	if v == nil {
		return 0, &ParseError{Want: "number"}
	}

	var (
		f   float64
		err error
	)

	switch val := v.raw.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int8:
		f = float64(val)
	case int16:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint8:
		f = float64(val)
	case uint16:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case json.Number:
		f, err = val.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		err = ErrUnparseable
	}

	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ParseError{Want: "number", Raw: v.raw}
	}

	return f, nil
}

// Text converts the value to a string. Numbers are formatted without
// trailing zeros so that 3216 and "3216" compare equal.
func (v *Value) Text() (string, error) {
	if v == nil {
		return "", &ParseError{Want: "text"}
	}

	switch val := v.raw.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool, map[string]any, map[any]any, []any:
		return "", &ParseError{Want: "text", Raw: v.raw}
	}

	f, err := v.Float()
	if err != nil {
		return "", &ParseError{Want: "text", Raw: v.raw}
	}

	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	v.raw = raw
	return nil
}

func (v *Value) String() string {
	if v == nil {
		return "<absent>"
	}
	return fmt.Sprintf("%v", v.raw)
}

// Float reads field f of a record as a number. The error, when not nil, is a
// *ParseError carrying the field name.
func Float(f Field, v *Value) (float64, error) {
	n, err := v.Float()
	if err != nil {
		return 0, withField(err, f)
	}
	return n, nil
}

// Text reads field f of a record as a string.
func Text(f Field, v *Value) (string, error) {
	s, err := v.Text()
	if err != nil {
		return "", withField(err, f)
	}
	return s, nil
}

func withField(err error, f Field) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		return &ParseError{Field: f, Want: perr.Want, Raw: perr.Raw}
	}
	return err
}
