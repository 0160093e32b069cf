// Package workspace locates the cloud workspace a command talks to.
//
// A workspace is described by a config.json file:
//
//	{
//	    // comments and trailing commas are allowed
//	    "subscription_id": "...",
//	    "resource_group": "...",
//	    "workspace_name": "...",
//	    "datastore_url": "file:///data/blobs",
//	}
//
// Resolve picks the configuration from, in order: the environment of a
// run executing inside the workspace, an explicit file, a config.json
// found in the current directory or its parents, and HIML_* variables.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// ConfigFileName is the name of the file searched for in parent
// directories.
const ConfigFileName = "config.json"

// Environment variables set on runs executing inside a workspace.
const (
	EnvRunID             = "AZUREML_RUN_ID"
	EnvRunSubscription   = "AZUREML_ARM_SUBSCRIPTION"
	EnvRunResourceGroup  = "AZUREML_ARM_RESOURCEGROUP"
	EnvRunWorkspaceName  = "AZUREML_ARM_WORKSPACE_NAME"
	EnvSubscriptionID    = "HIML_SUBSCRIPTION_ID"
	EnvResourceGroup     = "HIML_RESOURCE_GROUP"
	EnvWorkspaceName     = "HIML_WORKSPACE_NAME"
	EnvDatastoreURL      = "HIML_DATASTORE_URL"
	EnvSearchStopDirName = "PYTHONPATH"
)

// Where a configuration came from.
const (
	SourceRun         = "run"
	SourceFile        = "file"
	SourceDiscovered  = "discovered"
	SourceEnvironment = "environment"
	SourceProfile     = "profile"
)

// ErrNoConfig is returned when no workspace configuration can be found.
var ErrNoConfig = errors.New("no workspace config file given, nor can we find one")

// Config identifies a workspace.
type Config struct {
	SubscriptionID string `json:"subscription_id" yaml:"subscription_id"`
	ResourceGroup  string `json:"resource_group" yaml:"resource_group"`
	WorkspaceName  string `json:"workspace_name" yaml:"workspace_name"`
	// DatastoreURL is the storage location of the default datastore.
	DatastoreURL string `json:"datastore_url,omitempty" yaml:"datastore_url,omitempty"`

	Source string `json:"-" yaml:"-"`
	Path   string `json:"-" yaml:"-"`
}

// Validate checks that the identifying fields are set.
func (c *Config) Validate() error {
	var missing []error
	if c.SubscriptionID == "" {
		missing = append(missing, errors.New("subscription_id is empty"))
	}
	if c.ResourceGroup == "" {
		missing = append(missing, errors.New("resource_group is empty"))
	}
	if c.WorkspaceName == "" {
		missing = append(missing, errors.New("workspace_name is empty"))
	}
	return errors.Join(missing...)
}

// ParseConfig decodes a config.json document. Comments and trailing
// commas are stripped first.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse workspace config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workspace config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig reads and parses the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// FindFileInParents looks for name in start and each of its parents and
// returns the first match. The search does not go above stop when stop is
// an ancestor of start.
func FindFileInParents(name, start, stop string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	if stop != "" {
		if stop, err = filepath.Abs(stop); err != nil {
			stop = ""
		}
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if dir == stop || parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Resolve returns the workspace configuration to use. explicitPath, when
// not empty, must name an existing file.
func Resolve(explicitPath string) (*Config, error) {
	if cfg, ok := fromRunEnvironment(); ok {
		return cfg, nil
	}
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, fmt.Errorf("workspace config file does not exist: %s: %w", explicitPath, err)
		}
		cfg, err := LoadConfig(explicitPath)
		if err != nil {
			return nil, err
		}
		cfg.Source = SourceFile
		return cfg, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	if path, ok := FindFileInParents(ConfigFileName, cwd, os.Getenv(EnvSearchStopDirName)); ok {
		cfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg.Source = SourceDiscovered
		return cfg, nil
	}
	cfg := &Config{
		SubscriptionID: os.Getenv(EnvSubscriptionID),
		ResourceGroup:  os.Getenv(EnvResourceGroup),
		WorkspaceName:  os.Getenv(EnvWorkspaceName),
		DatastoreURL:   os.Getenv(EnvDatastoreURL),
		Source:         SourceEnvironment,
	}
	if cfg.Validate() == nil {
		return cfg, nil
	}
	return nil, ErrNoConfig
}

// fromRunEnvironment reads the workspace of the run this process executes
// in, if any.
func fromRunEnvironment() (*Config, bool) {
	if os.Getenv(EnvRunID) == "" {
		return nil, false
	}
	cfg := &Config{
		SubscriptionID: os.Getenv(EnvRunSubscription),
		ResourceGroup:  os.Getenv(EnvRunResourceGroup),
		WorkspaceName:  os.Getenv(EnvRunWorkspaceName),
		DatastoreURL:   os.Getenv(EnvDatastoreURL),
		Source:         SourceRun,
	}
	return cfg, cfg.Validate() == nil
}
