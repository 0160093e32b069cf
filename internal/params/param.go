// Package params defines typed parameter sets that can be overridden from
// the command line or from a map of values.
//
// Every parameter has a Kind that fixes the Go type of its value:
//
//	String      string
//	Int         int
//	Float       float64
//	Bool        bool
//	IntList     []int
//	FloatList   []float64
//	StringList  []string
//	IntTuple    []int      (fixed Length)
//	FloatTuple  []float64  (fixed Length)
//	Enum        string     (one of Choices)
//	ListOrDict  []any or map[string]any
//	Custom      whatever Param.Parse returns
//
// A parameter may hold nil only when it is Optional. ReadOnly, Constant and
// Private parameters are never overridable.
package params

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the value type of a parameter.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	IntList
	FloatList
	StringList
	IntTuple
	FloatTuple
	Enum
	ListOrDict
	Custom
)

var kindNames = map[Kind]string{
	String:     "string",
	Int:        "int",
	Float:      "float",
	Bool:       "bool",
	IntList:    "ints",
	FloatList:  "floats",
	StringList: "strings",
	IntTuple:   "int-tuple",
	FloatTuple: "float-tuple",
	Enum:       "enum",
	ListOrDict: "list-or-dict",
	Custom:     "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrUnsupportedType is returned when a parameter cannot be parsed from a
// string, such as a Custom parameter without a Parse function.
var ErrUnsupportedType = errors.New("parameter type is not supported on the command line")

// Param describes one parameter.
type Param struct {
	Name     string
	Doc      string
	Kind     Kind
	Default  any
	Optional bool

	ReadOnly bool
	Constant bool
	Private  bool

	// Length is the required number of elements for tuple kinds.
	Length int
	// Choices lists the accepted values of an Enum.
	Choices []string

	// Parse converts a command line string for Custom parameters.
	Parse func(s string) (any, error)
	// Validate checks a value before it is stored.
	Validate func(v any) error
}

// Overridable reports whether the parameter may be changed by overrides.
func (p *Param) Overridable() bool {
	return !p.ReadOnly && !p.Constant && !p.Private
}

// parse converts s into a value of the parameter's kind. The empty string
// yields the default.
func (p *Param) parse(s string) (any, error) {
	if s == "" {
		return p.Default, nil
	}
	switch p.Kind {
	case String:
		return s, nil
	case Int:
		return strconv.Atoi(s)
	case Float:
		return strconv.ParseFloat(s, 64)
	case Bool:
		return ParseBool(s)
	case IntList, IntTuple:
		return splitList(s, strconv.Atoi)
	case FloatList, FloatTuple:
		return splitList(s, func(e string) (float64, error) { return strconv.ParseFloat(e, 64) })
	case StringList:
		return splitList(s, func(e string) (string, error) { return e, nil })
	case Enum:
		return s, nil
	case ListOrDict:
		return parseListOrDict(s)
	case Custom:
		if p.Parse == nil {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrUnsupportedType)
		}
		return p.Parse(s)
	}
	return nil, fmt.Errorf("%s: unknown kind %v", p.Name, p.Kind)
}

// check verifies that v has the Go type of the parameter's kind and passes
// the parameter's own validation.
func (p *Param) check(v any) error {
	if v == nil {
		if p.Optional {
			return nil
		}
		return fmt.Errorf("%s: value must not be empty", p.Name)
	}
	var ok bool
	switch p.Kind {
	case String:
		_, ok = v.(string)
	case Int:
		_, ok = v.(int)
	case Float:
		_, ok = v.(float64)
	case Bool:
		_, ok = v.(bool)
	case IntList:
		_, ok = v.([]int)
	case FloatList:
		_, ok = v.([]float64)
	case StringList:
		_, ok = v.([]string)
	case IntTuple:
		var t []int
		if t, ok = v.([]int); ok && len(t) != p.Length {
			return fmt.Errorf("%s: expected %d values, got %d", p.Name, p.Length, len(t))
		}
	case FloatTuple:
		var t []float64
		if t, ok = v.([]float64); ok && len(t) != p.Length {
			return fmt.Errorf("%s: expected %d values, got %d", p.Name, p.Length, len(t))
		}
	case Enum:
		var s string
		if s, ok = v.(string); ok && !slices.Contains(p.Choices, s) {
			return fmt.Errorf("%s: %q is not one of %s", p.Name, s, strings.Join(p.Choices, ", "))
		}
	case ListOrDict:
		switch v.(type) {
		case []any, map[string]any:
			ok = true
		}
	case Custom:
		ok = true
	}
	if !ok {
		return fmt.Errorf("%s: %T is not a valid %v value", p.Name, v, p.Kind)
	}
	if p.Validate != nil {
		if err := p.Validate(v); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	return nil
}

// ParseBool accepts on/t/true/y/yes/1 and off/f/false/n/no/0, ignoring case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "t", "true", "y", "yes", "1":
		return true, nil
	case "off", "f", "false", "n", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", s)
}

func splitList[T any](s string, conv func(string) (T, error)) ([]T, error) {
	parts := strings.Split(s, ",")
	out := make([]T, 0, len(parts))
	for _, part := range parts {
		v, err := conv(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// parseListOrDict reads a YAML flow literal such as "['a', 'b']" or
// "{'lr': 0.5}". Scalars are rejected.
func parseListOrDict(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("parse list or dict %q: %w", s, err)
	}
	switch v.(type) {
	case []any, map[string]any:
		return v, nil
	}
	return nil, fmt.Errorf("%q is neither a list nor a dict", s)
}
