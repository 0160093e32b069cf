package condaenv

import "strings"

// Keep selects which occurrence of a duplicated package name survives Dedup.
type Keep int

const (
	// KeepFirst retains the first specifier seen for each name.
	KeepFirst Keep = iota
	// KeepLast retains the text of the last specifier seen for each name,
	// at the position where the name first appeared.
	KeepLast
)

func (k Keep) String() string {
	if k == KeepLast {
		return "last"
	}
	return "first"
}

// specSeparators end the package name inside a specifier.
const specSeparators = "=<>!"

// SpecName returns the package name of a dependency specifier.
//
//	"numpy==1.21"       → "numpy"
//	"conda1=1.0"        → "conda1"
//	"git+https://x.git" → "git+https://x.git"
func SpecName(spec string) string {
	if i := strings.IndexAny(spec, specSeparators); i >= 0 {
		return spec[:i]
	}
	return spec
}

// Dedup reduces specs to one entry per package name. Output order is the
// order in which each name first appears; keep only decides which
// specifier text fills that slot.
func Dedup(specs []string, keep Keep) []string {
	out := make([]string, 0, len(specs))
	index := make(map[string]int, len(specs))
	for _, spec := range specs {
		name := SpecName(spec)
		i, seen := index[name]
		if !seen {
			index[name] = len(out)
			out = append(out, spec)
			continue
		}
		if keep == KeepLast {
			out[i] = spec
		}
	}
	return out
}
