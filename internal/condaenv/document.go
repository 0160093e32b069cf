// Package condaenv loads, merges and writes conda environment files.
//
// An environment file has the shape
//
//	name: my-env          # optional
//	channels:             # optional
//	- defaults
//	dependencies:
//	- python=3.9
//	- pip:
//	  - numpy==1.21
//
// Merging unions channels in first-seen order, keeps the first conda
// specifier per package name and the last pip specifier per package name.
package condaenv

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	keyName         = "name"
	keyChannels     = "channels"
	keyDependencies = "dependencies"
	keyPip          = "pip"
)

// Dependency is one entry of the dependencies list: either a conda
// specifier or a nested pip block.
type Dependency struct {
	Spec  string   // conda specifier; empty for pip blocks
	Pip   []string // pip specifiers; only meaningful when IsPip
	IsPip bool
}

// Conda returns a conda-level dependency.
func Conda(spec string) Dependency {
	return Dependency{Spec: spec}
}

// PipBlock returns a pip block holding specs.
func PipBlock(specs ...string) Dependency {
	return Dependency{Pip: specs, IsPip: true}
}

// Document is an in-memory conda environment file.
type Document struct {
	Name         string // empty when the file declares no name
	Channels     []string
	Dependencies []Dependency
}

// CondaSpecs returns the conda-level specifiers in declaration order.
func (d *Document) CondaSpecs() []string {
	var out []string
	for _, dep := range d.Dependencies {
		if !dep.IsPip {
			out = append(out, dep.Spec)
		}
	}
	return out
}

// PipSpecs returns the specifiers of every pip block, concatenated in
// declaration order. Returns nil if the document has no pip block.
func (d *Document) PipSpecs() []string {
	var out []string
	for _, dep := range d.Dependencies {
		if dep.IsPip {
			out = append(out, dep.Pip...)
		}
	}
	return out
}

// AddPip appends specs to the first pip block, adding a pip block at the
// end of the dependencies when there is none. Existing entries, include
// lines among them, are kept.
func (d *Document) AddPip(specs ...string) {
	for i, dep := range d.Dependencies {
		if dep.IsPip {
			d.Dependencies[i].Pip = append(dep.Pip, specs...)
			return
		}
	}
	d.Dependencies = append(d.Dependencies, PipBlock(specs...))
}

// HasPip reports whether the document carries at least one pip block.
func (d *Document) HasPip() bool {
	return slices.ContainsFunc(d.Dependencies, func(dep Dependency) bool { return dep.IsPip })
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Name:         d.Name,
		Channels:     slices.Clone(d.Channels),
		Dependencies: make([]Dependency, len(d.Dependencies)),
	}
	for i, dep := range d.Dependencies {
		dep.Pip = slices.Clone(dep.Pip)
		out.Dependencies[i] = dep
	}
	return out
}

// ParseError reports a conda file that is not valid YAML or does not have
// the environment file shape.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse conda environment: %v", e.Err)
	}
	return fmt.Sprintf("parse conda environment %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads and parses the conda file at path. Read failures are returned
// as-is; malformed content yields a *ParseError.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse decodes an environment file. Keys other than name, channels and
// dependencies are ignored.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("empty document")}
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &ParseError{Err: fmt.Errorf("line %d: top level must be a mapping", top.Line)}
	}

	doc := &Document{}
	var sawDependencies bool
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		switch key.Value {
		case keyName:
			if value.Kind != yaml.ScalarNode {
				return nil, &ParseError{Err: fmt.Errorf("line %d: name must be a string", value.Line)}
			}
			doc.Name = value.Value
		case keyChannels:
			channels, err := scalarList(value, keyChannels)
			if err != nil {
				return nil, &ParseError{Err: err}
			}
			doc.Channels = channels
		case keyDependencies:
			deps, err := parseDependencies(value)
			if err != nil {
				return nil, &ParseError{Err: err}
			}
			doc.Dependencies = deps
			sawDependencies = true
		}
	}
	if !sawDependencies {
		return nil, &ParseError{Err: fmt.Errorf("missing %q key", keyDependencies)}
	}
	return doc, nil
}

func parseDependencies(node *yaml.Node) ([]Dependency, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: dependencies must be a list", node.Line)
	}
	deps := make([]Dependency, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			deps = append(deps, Conda(item.Value))
		case yaml.MappingNode:
			if len(item.Content) != 2 || item.Content[0].Value != keyPip {
				return nil, fmt.Errorf("line %d: only a single %q mapping is allowed in dependencies", item.Line, keyPip)
			}
			specs, err := scalarList(item.Content[1], keyPip)
			if err != nil {
				return nil, err
			}
			if specs == nil {
				specs = []string{}
			}
			deps = append(deps, PipBlock(specs...))
		default:
			return nil, fmt.Errorf("line %d: unexpected dependency entry", item.Line)
		}
	}
	return deps, nil
}

// scalarList decodes a sequence of scalars. A null value yields nil.
func scalarList(node *yaml.Node, what string) ([]string, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: %s must be a list", node.Line, what)
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %s entries must be strings", item.Line, what)
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
