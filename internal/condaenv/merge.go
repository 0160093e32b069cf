package condaenv

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ErrEmptyDependencies is returned when a merge produces no conda-level
// dependency. A usable environment always declares at least one, so this
// points at malformed input.
var ErrEmptyDependencies = errors.New("no conda dependencies left after merging")

// Merge steps named in MergeError.
const (
	StepChannels     = "channels"
	StepDependencies = "dependencies"
)

// MergeError wraps a failure of the channel or dependency priority step.
type MergeError struct {
	Step string
	Err  error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge %s: %v", e.Step, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// Merger combines environment documents. The zero value uses
// UnionChannels and ConcatDependencies.
type Merger struct {
	// MergeChannels resolves the channel lists of all inputs, in input order.
	MergeChannels func(channels [][]string) ([]string, error)
	// MergeDependencies resolves the dependency lists of all inputs, in
	// input order. Its result is deduplicated afterwards.
	MergeDependencies func(deps [][]Dependency) ([]Dependency, error)
	Logger            *slog.Logger
}

// UnionChannels returns every channel once, in first-seen order.
func UnionChannels(channels [][]string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, list := range channels {
		for _, ch := range list {
			if seen[ch] {
				continue
			}
			seen[ch] = true
			out = append(out, ch)
		}
	}
	return out, nil
}

// ConcatDependencies concatenates conda entries in input order and gathers
// all pip entries into a single trailing pip block.
func ConcatDependencies(deps [][]Dependency) ([]Dependency, error) {
	var out []Dependency
	var pip []string
	hasPip := false
	for _, list := range deps {
		for _, dep := range list {
			if dep.IsPip {
				hasPip = true
				pip = append(pip, dep.Pip...)
				continue
			}
			out = append(out, dep)
		}
	}
	if hasPip {
		out = append(out, PipBlock(pip...))
	}
	return out, nil
}

func (m *Merger) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Merge combines docs into a new document. extraPip entries are treated
// as one more pip block following all inputs.
//
// Conda specifiers keep the first version seen per package; pip
// specifiers keep the last one and are sorted. The name is the last one
// declared.
func (m *Merger) Merge(docs []*Document, extraPip []string) (*Document, error) {
	mergeChannels := m.MergeChannels
	if mergeChannels == nil {
		mergeChannels = UnionChannels
	}
	mergeDeps := m.MergeDependencies
	if mergeDeps == nil {
		mergeDeps = ConcatDependencies
	}

	out := &Document{}
	for _, doc := range docs {
		if doc.Name != "" {
			out.Name = doc.Name
		}
	}

	channelLists := make([][]string, 0, len(docs))
	for _, doc := range docs {
		channelLists = append(channelLists, doc.Channels)
	}
	channels, err := mergeChannels(channelLists)
	if err != nil {
		m.logger().Error("Failed to merge channel priorities", "error", err)
		return nil, &MergeError{Step: StepChannels, Err: err}
	}
	if len(channels) > 0 {
		out.Channels = channels
	}

	depLists := make([][]Dependency, 0, len(docs)+1)
	for _, doc := range docs {
		depLists = append(depLists, doc.Dependencies)
	}
	if len(extraPip) > 0 {
		depLists = append(depLists, []Dependency{PipBlock(extraPip...)})
	}
	merged, err := mergeDeps(depLists)
	if err != nil {
		m.logger().Error("Failed to merge dependencies", "error", err)
		return nil, &MergeError{Step: StepDependencies, Err: err}
	}

	doc := &Document{Dependencies: merged}
	conda := Dedup(doc.CondaSpecs(), KeepFirst)
	if len(conda) == 0 {
		return nil, ErrEmptyDependencies
	}
	for _, spec := range conda {
		out.Dependencies = append(out.Dependencies, Conda(spec))
	}
	pip := Dedup(doc.PipSpecs(), KeepLast)
	if len(pip) > 0 {
		slices.Sort(pip)
		out.Dependencies = append(out.Dependencies, PipBlock(pip...))
	}
	return out, nil
}

// MergeFiles merges the conda files at paths and writes the result to
// output. Each pip file contributes its lines as extra pip specifiers.
// Pip include lines in the inputs are dropped. Nothing is written when
// loading or merging fails.
func (m *Merger) MergeFiles(paths []string, output string, pipFiles ...string) error {
	var extraPip []string
	for _, pf := range pipFiles {
		lines, err := ReadPipFile(pf)
		if err != nil {
			return err
		}
		extraPip = append(extraPip, lines...)
	}

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		found, doc, err := LoadWithPipInclude(path)
		if err != nil {
			return err
		}
		if found {
			m.logger().Info("dropped pip include lines", "file", path)
		}
		docs = append(docs, doc)
	}

	merged, err := m.Merge(docs, extraPip)
	if err != nil {
		return err
	}
	return Write(merged, output)
}

// MergeFiles merges conda files with the default Merger.
func MergeFiles(paths []string, output string, pipFiles ...string) error {
	var m Merger
	return m.MergeFiles(paths, output, pipFiles...)
}
