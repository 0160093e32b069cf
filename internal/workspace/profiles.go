package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profiles manages named workspace configurations stored as
//
//	~/.condakit/workspaces/<name>.yaml
type Profiles struct {
	Dir string
}

// profilesDir returns ~/.condakit/workspaces.
func profilesDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".condakit", "workspaces"), nil
}

// OpenProfiles returns the profile store in the user's home directory,
// creating it if needed.
func OpenProfiles() (*Profiles, error) {
	dir, err := profilesDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &Profiles{Dir: dir}, nil
}

// path returns the file of profile name. Names must not be empty or
// contain path separators or "..".
func (p *Profiles) path(name string) (string, error) {
	if name == "" || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid profile name %q", name)
	}
	return filepath.Join(p.Dir, name+".yaml"), nil
}

// Add writes a profile. Errors if it already exists.
func (p *Profiles) Add(name string, cfg Config) error {
	path, err := p.path(name)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("profile %q already exists", name)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Load reads a profile.
func (p *Profiles) Load(name string) (*Config, error) {
	path, err := p.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("profile %q not found (run 'condakit workspace add %s' first)", name, name)
		}
		return nil, fmt.Errorf("read profile %q: %w", name, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	cfg.Source = SourceProfile
	cfg.Path = path
	return &cfg, nil
}

// List returns the names of all profiles.
func (p *Profiles) List() ([]string, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	return names, nil
}

// Remove deletes a profile.
func (p *Profiles) Remove(name string) error {
	path, err := p.path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("profile %q not found", name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	return nil
}
