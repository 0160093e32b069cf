package workspace

// Settings are loaded from .condakit/settings.yaml in the project root.
//
// The file holds a deny list of glob patterns for local files that must
// never be uploaded to a datastore. Patterns may be written as bare globs
// ("outputs/**") or wrapped in an Upload() verb ("Upload(./outputs/**)").

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds condakit configuration from .condakit/settings.yaml.
type Settings struct {
	Permissions Permissions `yaml:"permissions"`
}

// Permissions controls which files condakit uploads.
type Permissions struct {
	// Deny is a list of glob patterns for files that are never uploaded.
	// Example: ["Upload(./outputs/**)", "*.ckpt"]
	Deny []string `yaml:"deny"`
}

// LoadSettings reads .condakit/settings.yaml relative to root.
// Returns nil (not an error) if the file does not exist.
func LoadSettings(root string) (*Settings, error) {
	path := filepath.Join(root, ".condakit", "settings.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return &s, nil
}

// IsDenied reports whether relPath (forward-slash, relative to root) matches
// any deny rule. Safe to call on a nil *Settings receiver.
func (s *Settings) IsDenied(relPath string) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.Permissions.Deny {
		if matchDenyPattern(parseDenyRule(rule), relPath) {
			return true
		}
	}
	return false
}

// parseDenyRule extracts the path glob from a deny rule.
//
//	"Upload(./outputs/**)" → "outputs/**"
//	"outputs/**"           → "outputs/**"
func parseDenyRule(rule string) string {
	rule = strings.TrimSpace(rule)
	if strings.HasPrefix(rule, "Upload(") && strings.HasSuffix(rule, ")") {
		rule = rule[len("Upload(") : len(rule)-1]
	}
	return strings.TrimPrefix(rule, "./")
}

// matchDenyPattern reports whether path matches a deny glob pattern.
//
// "prefix/**" matches the prefix directory itself and every path beneath it.
// "**/name" matches name at any depth. Other patterns use path.Match
// semantics against the full path and, for patterns without a slash,
// against the base name as well.
func matchDenyPattern(pattern, relPath string) bool {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		segments := strings.Split(relPath, "/")
		for i := range segments {
			if matchDenyPattern(rest, strings.Join(segments[i:], "/")) {
				return true
			}
		}
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
	}
	if matched, _ := filepath.Match(pattern, relPath); matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		matched, _ := filepath.Match(pattern, relPath[strings.LastIndex(relPath, "/")+1:])
		return matched
	}
	return false
}
