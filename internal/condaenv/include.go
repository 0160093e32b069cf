package condaenv

import (
	"os"
	"strings"
)

// IsPipInclude reports whether a pip entry pulls in a requirements file
// ("-r reqs.txt", "--requirement reqs.txt", "--requirement=reqs.txt").
func IsPipInclude(spec string) bool {
	s := strings.TrimSpace(spec)
	for _, prefix := range []string{"-r ", "-r\t", "--requirement ", "--requirement\t", "--requirement="} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// ResolvePipInclude returns a copy of doc with every requirements-file
// include removed from its pip blocks. When replacement is non-nil its
// entries are appended to the first pip block (one is added at the end of
// the dependencies if none exists). Pip blocks left empty are dropped.
//
// The boolean result reports whether any include was found. doc itself is
// not modified.
func ResolvePipInclude(doc *Document, replacement []string) (bool, *Document) {
	out := doc.Clone()
	found := false
	firstPip := -1
	for i := range out.Dependencies {
		dep := &out.Dependencies[i]
		if !dep.IsPip {
			continue
		}
		if firstPip < 0 {
			firstPip = i
		}
		kept := dep.Pip[:0]
		for _, spec := range dep.Pip {
			if IsPipInclude(spec) {
				found = true
				continue
			}
			kept = append(kept, spec)
		}
		dep.Pip = kept
	}

	if replacement != nil {
		if firstPip < 0 {
			out.Dependencies = append(out.Dependencies, PipBlock())
			firstPip = len(out.Dependencies) - 1
		}
		out.Dependencies[firstPip].Pip = append(out.Dependencies[firstPip].Pip, replacement...)
	}

	deps := out.Dependencies[:0]
	for _, dep := range out.Dependencies {
		if dep.IsPip && len(dep.Pip) == 0 {
			continue
		}
		deps = append(deps, dep)
	}
	out.Dependencies = deps
	return found, out
}

// LoadWithPipInclude loads the conda file at path and strips pip include
// lines, reporting whether any were present.
func LoadWithPipInclude(path string) (bool, *Document, error) {
	doc, err := Load(path)
	if err != nil {
		return false, nil, err
	}
	found, resolved := ResolvePipInclude(doc, nil)
	return found, resolved, nil
}

// ReadPipFile reads a pip requirements file: one specifier per line,
// blank lines and lines starting with # are skipped.
func ReadPipFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parsePipLines(string(data)), nil
}

func parsePipLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
