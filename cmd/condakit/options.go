package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"condakit/internal/amlrun"
	"condakit/internal/datastore"
	"condakit/internal/logging"
	"condakit/internal/params"
	"condakit/internal/workspace"
)

// Flag names shared by the commands that talk to a workspace.
const (
	flagConfig  = "config"
	flagProfile = "profile"
	flagVerbose = "verbose"
)

// workspaceOptions selects the workspace a command talks to.
type workspaceOptions struct {
	configPath string
	profile    string
	verbose    bool
}

// AddFlags registers --config, --profile and --verbose on flagSet.
func (o *workspaceOptions) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.configPath, flagConfig, "", "workspace config.json to use")
	flagSet.StringVar(&o.profile, flagProfile, "", "saved workspace profile to use")
	flagSet.BoolVarP(&o.verbose, flagVerbose, "v", false, "log debug messages")
}

// workspaceParams are the parameter form of the workspace flags, for
// commands that parse their arguments with a params.Set.
func workspaceParams() []*params.Param {
	return []*params.Param{
		{Name: flagConfig, Kind: params.String, Default: "", Doc: "workspace config.json to use"},
		{Name: flagProfile, Kind: params.String, Default: "", Doc: "saved workspace profile to use"},
		{Name: flagVerbose, Kind: params.Bool, Default: false, Doc: "log debug messages"},
	}
}

func workspaceOptionsFromParams(set *params.Set) *workspaceOptions {
	return &workspaceOptions{
		configPath: set.GetString(flagConfig),
		profile:    set.GetString(flagProfile),
		verbose:    set.GetBool(flagVerbose),
	}
}

func (o *workspaceOptions) logger(command string) *slog.Logger {
	return logging.NewCommandLogger(command, o.verbose)
}

// resolve returns the selected workspace: a profile when --profile is
// given, otherwise the result of workspace.Resolve.
func (o *workspaceOptions) resolve() (*workspace.Config, error) {
	if o.profile != "" {
		if o.configPath != "" {
			return nil, errors.New("--config and --profile cannot be combined")
		}
		profiles, err := workspace.OpenProfiles()
		if err != nil {
			return nil, err
		}
		return profiles.Load(o.profile)
	}
	return workspace.Resolve(o.configPath)
}

func (o *workspaceOptions) datastoreURL() (string, error) {
	cfg, err := o.resolve()
	if err != nil {
		return "", err
	}
	if cfg.DatastoreURL == "" {
		return "", fmt.Errorf("workspace %q has no datastore_url", cfg.WorkspaceName)
	}
	return cfg.DatastoreURL, nil
}

// datastore opens the default datastore of the selected workspace.
func (o *workspaceOptions) datastore(logger *slog.Logger) (*datastore.Store, error) {
	u, err := o.datastoreURL()
	if err != nil {
		return nil, err
	}
	store := datastore.New(u)
	store.Logger = logger
	return store, nil
}

// runStore opens the run store kept on the default datastore.
func (o *workspaceOptions) runStore(logger *slog.Logger) (*amlrun.Store, error) {
	u, err := o.datastoreURL()
	if err != nil {
		return nil, err
	}
	store := amlrun.NewStore(u)
	store.Logger = logger
	return store, nil
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	return flagSet
}

// usageError wraps err with a command's usage line.
func usageError(usage string, err error) error {
	if err == nil {
		return fmt.Errorf("usage: %s", usage)
	}
	return fmt.Errorf("%w\nusage: %s", err, usage)
}
