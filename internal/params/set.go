package params

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
)

// Set is a named collection of parameters and their current values.
type Set struct {
	Name string
	// Validate checks the whole set after values change.
	Validate func(s *Set) error
	Logger   *slog.Logger

	params []*Param
	byName map[string]*Param
	values map[string]any
}

// NewSet returns a set holding params at their default values. It panics
// on duplicate names, which is a programming error.
func NewSet(name string, params ...*Param) *Set {
	s := &Set{
		Name:   name,
		byName: make(map[string]*Param, len(params)),
		values: make(map[string]any, len(params)),
	}
	for _, p := range params {
		if _, dup := s.byName[p.Name]; dup {
			panic(fmt.Sprintf("params.NewSet(%q): duplicate parameter %q", name, p.Name))
		}
		s.params = append(s.params, p)
		s.byName[p.Name] = p
		s.values[p.Name] = p.Default
	}
	return s
}

func (s *Set) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Param returns the parameter called name.
func (s *Set) Param(name string) (*Param, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Params returns all parameters in declaration order.
func (s *Set) Params() []*Param {
	return slices.Clone(s.params)
}

// Overridable returns the parameters that may be overridden, in
// declaration order.
func (s *Set) Overridable() []*Param {
	var out []*Param
	for _, p := range s.params {
		if p.Overridable() {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the current value of name.
func (s *Set) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of all current values.
func (s *Set) Values() map[string]any {
	return maps.Clone(s.values)
}

// Set changes a single value. ReadOnly and Constant parameters cannot be
// modified.
func (s *Set) Set(name string, v any) error {
	p, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%s has no parameter %q", s.Name, name)
	}
	if p.ReadOnly || p.Constant {
		return fmt.Errorf("parameter %q cannot be modified", name)
	}
	return s.store(p, v)
}

func (s *Set) store(p *Param, v any) error {
	if err := p.check(v); err != nil {
		return err
	}
	s.values[p.Name] = v
	return nil
}

// Check runs the set-level Validate function.
func (s *Set) Check() error {
	if s.Validate == nil {
		return nil
	}
	if err := s.Validate(s); err != nil {
		return fmt.Errorf("validate %s: %w", s.Name, err)
	}
	return nil
}

// SetAndValidate sets every value in values, then validates the set.
// Unknown names are an error.
func (s *Set) SetAndValidate(values map[string]any) error {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if err := s.Set(name, values[name]); err != nil {
			return err
		}
	}
	return s.Check()
}

// ApplyOverrides stores the overrides that target overridable parameters
// and returns them. Other keys are skipped. When keysToIgnore is non-nil
// the skipped keys are reported via ReportOnOverrides. When validate is
// true the set is validated afterwards.
func (s *Set) ApplyOverrides(overrides map[string]any, validate bool, keysToIgnore map[string]bool) (map[string]any, error) {
	applied := make(map[string]any)
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		p, ok := s.byName[name]
		if !ok || !p.Overridable() {
			continue
		}
		if err := s.store(p, overrides[name]); err != nil {
			return nil, err
		}
		applied[name] = overrides[name]
	}
	if keysToIgnore != nil {
		s.ReportOnOverrides(overrides, keysToIgnore)
	}
	if validate {
		if err := s.Check(); err != nil {
			return nil, err
		}
	}
	return applied, nil
}

// ReportOnOverrides logs one warning for every override that did not take
// effect: unknown keys, ReadOnly or Constant parameters, and values that
// differ from what the set now holds. Keys in keysToIgnore are skipped.
func (s *Set) ReportOnOverrides(overrides map[string]any, keysToIgnore map[string]bool) {
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		if keysToIgnore[name] {
			continue
		}
		desired := overrides[name]
		p, ok := s.byName[name]
		switch {
		case !ok:
			s.logger().Warn("override not applied: not a parameter", "set", s.Name, "key", name, "value", desired)
		case p.ReadOnly || p.Constant:
			s.logger().Warn("override not applied: parameter is constant or read-only", "set", s.Name, "key", name, "value", desired)
		case !reflect.DeepEqual(s.values[name], desired):
			s.logger().Warn("override not applied", "set", s.Name, "key", name, "value", desired, "current", s.values[name])
		}
	}
}

// ParseAndApply parses args, failing on unknown flags, and applies the
// result to s.
func ParseAndApply(s *Set, args []string) error {
	res, err := s.Parse(args, true)
	if err != nil {
		return err
	}
	_, err = s.ApplyOverrides(res.Values, true, nil)
	return err
}

// CopyMatching copies the values of every parameter of to that also
// exists in from. Constant parameters of to keep their value; private
// parameters are copied.
func CopyMatching(from, to *Set) error {
	for _, p := range to.params {
		if p.Constant {
			continue
		}
		v, ok := from.values[p.Name]
		if !ok {
			continue
		}
		if err := to.store(p, v); err != nil {
			return fmt.Errorf("copy %s from %s: %w", p.Name, from.Name, err)
		}
	}
	return nil
}

// GetString returns the string value of name, or "" when unset.
func (s *Set) GetString(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// GetInt returns the int value of name, or 0 when unset.
func (s *Set) GetInt(name string) int {
	v, _ := s.values[name].(int)
	return v
}

// GetFloat returns the float value of name, or 0 when unset.
func (s *Set) GetFloat(name string) float64 {
	v, _ := s.values[name].(float64)
	return v
}

// GetBool returns the bool value of name.
func (s *Set) GetBool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

// GetInts returns the value of an IntList or IntTuple parameter.
func (s *Set) GetInts(name string) []int {
	v, _ := s.values[name].([]int)
	return v
}

// GetFloats returns the value of a FloatList or FloatTuple parameter.
func (s *Set) GetFloats(name string) []float64 {
	v, _ := s.values[name].([]float64)
	return v
}

// GetStrings returns a []string value, such as a StringList parameter.
func (s *Set) GetStrings(name string) []string {
	v, _ := s.values[name].([]string)
	return v
}
