package addon

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cast"
)

// OptionKind is the declared type of an add-on option.
type OptionKind string

const (
	// KindString is a free-form text option.
	KindString OptionKind = "string"

	// KindBoolean is an on/off option.
	KindBoolean OptionKind = "boolean"

	// KindEnum is a choice among OptionField.Values.
	KindEnum OptionKind = "enum"
)

// Valid reports whether k is a known option kind.
func (k OptionKind) Valid() bool {
	switch k {
	case KindString, KindBoolean, KindEnum:
		return true
	}
	return false
}

// OptionField is one entry of an add-on's option schema.
type OptionField struct {
	Type    OptionKind `json:"type" yaml:"type"`
	Label   string     `json:"label,omitempty" yaml:"label,omitempty"`
	Default any        `json:"default,omitempty" yaml:"default,omitempty"`

	// Values lists the allowed choices of an enum option.
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
}

// OptionValue is a tagged union holding a string, boolean or enum value.
// The zero value is an empty string option.
type OptionValue struct {
	kind OptionKind
	str  string
	b    bool
}

// StringValue returns a string option value.
func StringValue(s string) OptionValue { return OptionValue{kind: KindString, str: s} }

// BoolValue returns a boolean option value.
func BoolValue(b bool) OptionValue { return OptionValue{kind: KindBoolean, b: b} }

// EnumValue returns an enum option value. Membership is checked by
// OptionField.Parse, not here.
func EnumValue(choice string) OptionValue { return OptionValue{kind: KindEnum, str: choice} }

// Kind returns the tag of the union.
func (v OptionValue) Kind() OptionKind {
	if v.kind == "" {
		return KindString
	}
	return v.kind
}

// Bool returns the boolean payload and whether v is a boolean.
func (v OptionValue) Bool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// Text returns the string payload of a string or enum value.
func (v OptionValue) Text() (string, bool) {
	return v.str, v.kind != KindBoolean
}

// String renders the value as it is substituted into templates.
func (v OptionValue) String() string {
	if v.kind == KindBoolean {
		return strconv.FormatBool(v.b)
	}
	return v.str
}

// MarshalJSON encodes the payload as a native JSON string or boolean.
func (v OptionValue) MarshalJSON() ([]byte, error) {
	if v.kind == KindBoolean {
		return json.Marshal(v.b)
	}
	return json.Marshal(v.str)
}

// Values holds the resolved option values of one add-on, keyed by name.
type Values map[string]OptionValue

// Names returns the option names in sorted order.
func (vs Values) Names() []string {
	return slices.Sorted(maps.Keys(vs))
}

// Parse coerces raw input (from JSON, YAML, a form field or a CLI flag) into
// a value of the field's kind.
func (f OptionField) Parse(raw any) (OptionValue, error) {
	switch f.Type {
	case KindBoolean:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return OptionValue{}, fmt.Errorf("expected boolean, got %v", raw)
		}
		return BoolValue(b), nil
	case KindEnum:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return OptionValue{}, fmt.Errorf("expected one of %v, got %v", f.Values, raw)
		}
		if !slices.Contains(f.Values, s) {
			return OptionValue{}, fmt.Errorf("%q is not one of %v", s, f.Values)
		}
		return EnumValue(s), nil
	case KindString, "":
		s, err := cast.ToStringE(raw)
		if err != nil {
			return OptionValue{}, fmt.Errorf("expected string, got %v", raw)
		}
		return StringValue(s), nil
	default:
		return OptionValue{}, fmt.Errorf("unknown option type %q", f.Type)
	}
}

// DefaultValue returns the field's default. A missing default yields the
// kind's zero value; for enums that is the first listed choice.
func (f OptionField) DefaultValue() (OptionValue, error) {
	if f.Default == nil {
		switch f.Type {
		case KindBoolean:
			return BoolValue(false), nil
		case KindEnum:
			if len(f.Values) == 0 {
				return OptionValue{}, fmt.Errorf("enum has no values")
			}
			return EnumValue(f.Values[0]), nil
		default:
			return StringValue(""), nil
		}
	}
	return f.Parse(f.Default)
}

// ResolveValues validates raw values against the schema and fills in
// defaults. Every problem is reported; unknown names are errors.
func ResolveValues(schema map[string]OptionField, raw map[string]any) (Values, error) {
	var errs ValidationErrors
	out := make(Values, len(schema))

	for _, name := range slices.Sorted(maps.Keys(schema)) {
		field := schema[name]
		if rv, ok := raw[name]; ok {
			v, err := field.Parse(rv)
			if err != nil {
				errs.Add(name, err.Error())
				continue
			}
			out[name] = v
			continue
		}
		v, err := field.DefaultValue()
		if err != nil {
			errs.Add(name, "invalid default: "+err.Error())
			continue
		}
		out[name] = v
	}

	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := schema[name]; !ok {
			errs.Add(name, "unknown option")
		}
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return out, nil
}
