package params

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// negationPrefix marks the flag that clears a boolean which defaults to true.
const negationPrefix = "no-"

// ParseResult holds the outcome of parsing command line arguments.
type ParseResult struct {
	// Values has one entry per overridable parameter: the parsed value, or
	// the current value when the flag was not given.
	Values map[string]any
	// Unknown lists flags that did not match any parameter.
	Unknown []string
	// Args are the remaining positional arguments.
	Args []string
}

// flagValue adapts a Param to pflag.Value.
type flagValue struct {
	p     *Param
	value any
}

func (v *flagValue) String() string {
	if v.value == nil {
		return ""
	}
	switch t := v.value.(type) {
	case []int:
		return joinValues(t)
	case []float64:
		return joinValues(t)
	case []string:
		return strings.Join(t, ",")
	}
	return fmt.Sprint(v.value)
}

func (v *flagValue) Set(s string) error {
	parsed, err := v.p.parse(s)
	if err != nil {
		return err
	}
	if err := v.p.check(parsed); err != nil {
		return err
	}
	v.value = parsed
	return nil
}

func (v *flagValue) Type() string {
	return v.p.Kind.String()
}

// negatedBool is the value behind --no-<name>.
type negatedBool struct {
	set bool
}

func (n *negatedBool) String() string { return fmt.Sprint(n.set) }

func (n *negatedBool) Set(s string) error {
	b, err := ParseBool(s)
	if err != nil {
		return err
	}
	n.set = b
	return nil
}

func (n *negatedBool) Type() string { return "bool" }

func joinValues[T any](vs []T) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

// FlagSet returns a pflag.FlagSet with one flag per overridable parameter,
// defaulting to the current values.
//
// A boolean defaulting to false may be given bare (--flag) or with a value
// (--flag=yes). A boolean defaulting to true requires a value, or is
// cleared with --no-<name>.
func (s *Set) FlagSet() (*pflag.FlagSet, error) {
	fs, _, err := s.flagSet()
	return fs, err
}

func (s *Set) flagSet() (*pflag.FlagSet, map[string]*negatedBool, error) {
	fs := pflag.NewFlagSet(s.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	negations := make(map[string]*negatedBool)
	for _, p := range s.Overridable() {
		if p.Kind == Custom && p.Parse == nil {
			return nil, nil, fmt.Errorf("parameter %q: %w", p.Name, ErrUnsupportedType)
		}
		value := &flagValue{p: p, value: s.values[p.Name]}
		flag := fs.VarPF(value, p.Name, "", p.Doc)
		if p.Kind != Bool {
			continue
		}
		if on, _ := s.values[p.Name].(bool); !on {
			flag.NoOptDefVal = "true"
			continue
		}
		neg := &negatedBool{}
		negations[p.Name] = neg
		fs.VarPF(neg, negationPrefix+p.Name, "", "set "+p.Name+" to false").NoOptDefVal = "true"
	}
	return fs, negations, nil
}

// Parse parses args against the overridable parameters of s without
// changing s. With failOnUnknown, flags that match no parameter are an
// error; otherwise they are collected in ParseResult.Unknown.
func (s *Set) Parse(args []string, failOnUnknown bool) (*ParseResult, error) {
	fs, negations, err := s.flagSet()
	if err != nil {
		return nil, err
	}
	res := &ParseResult{Values: make(map[string]any)}
	if !failOnUnknown {
		fs.ParseErrorsAllowlist.UnknownFlags = true
		res.Unknown = unknownFlags(fs, args)
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse %s arguments: %w", s.Name, err)
	}
	for _, p := range s.Overridable() {
		res.Values[p.Name] = fs.Lookup(p.Name).Value.(*flagValue).value
	}
	for name, neg := range negations {
		negName := negationPrefix + name
		if !fs.Changed(negName) {
			continue
		}
		if fs.Changed(name) {
			return nil, fmt.Errorf("--%s and --%s cannot be combined", name, negName)
		}
		res.Values[name] = !neg.set
	}
	res.Args = fs.Args()
	return res, nil
}

// unknownFlags returns the long flags in args that fs does not define.
func unknownFlags(fs *pflag.FlagSet, args []string) []string {
	var out []string
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[2:], "=")
		if fs.Lookup(name) == nil {
			out = append(out, arg)
		}
	}
	return out
}
