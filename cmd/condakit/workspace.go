package main

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"condakit/internal/workspace"
)

// workspaceQuestions are asked by "workspace add" for every detail not
// given as a flag.
var workspaceQuestions = []question{
	{Key: "subscription_id", Prompt: "Subscription ID"},
	{Key: "resource_group", Prompt: "Resource group"},
	{Key: "workspace_name", Prompt: "Workspace name"},
	{Key: "datastore_url", Prompt: "Datastore URL", Optional: true},
}

func runWorkspace(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError(usageWorkspace, nil)
	}
	switch args[0] {
	case "add":
		return runWorkspaceAdd(ctx, args[1:])
	case "list":
		return runWorkspaceList(args[1:])
	case "show":
		return runWorkspaceShow(args[1:])
	case "rm":
		return runWorkspaceRemove(args[1:])
	}
	return usageError(usageWorkspace, fmt.Errorf("unknown workspace command %q", args[0]))
}

// ---------------------------------------------------------------------------
// workspace add
// ---------------------------------------------------------------------------

func runWorkspaceAdd(ctx context.Context, args []string) error {
	flagSet := newFlagSet("workspace add")
	answers := make(map[string]*string, len(workspaceQuestions))
	for _, q := range workspaceQuestions {
		answers[q.Key] = flagSet.String(q.Key, "", q.Prompt)
	}
	if err := flagSet.Parse(args); err != nil {
		return usageError("condakit workspace add [--subscription_id ...] <name>", err)
	}
	if flagSet.NArg() != 1 {
		return usageError("condakit workspace add [--subscription_id ...] <name>", nil)
	}
	name := flagSet.Arg(0)

	profiles, err := workspace.OpenProfiles()
	if err != nil {
		return err
	}

	var missing []question
	for _, q := range workspaceQuestions {
		if !flagSet.Changed(q.Key) {
			missing = append(missing, q)
		}
	}
	prompted, err := promptQuestions(ctx, missing)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	for k, v := range prompted {
		*answers[k] = v
	}

	cfg := workspace.Config{
		SubscriptionID: *answers["subscription_id"],
		ResourceGroup:  *answers["resource_group"],
		WorkspaceName:  *answers["workspace_name"],
		DatastoreURL:   *answers["datastore_url"],
	}
	if err := profiles.Add(name, cfg); err != nil {
		return err
	}
	fmt.Printf("added workspace profile %q\n", name)
	return nil
}

// ---------------------------------------------------------------------------
// workspace list / show / rm
// ---------------------------------------------------------------------------

func runWorkspaceList(args []string) error {
	if len(args) != 0 {
		return usageError("condakit workspace list", nil)
	}
	profiles, err := workspace.OpenProfiles()
	if err != nil {
		return err
	}
	names, err := profiles.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no workspace profiles")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runWorkspaceShow(args []string) error {
	flagSet := newFlagSet("workspace show")
	configPath := flagSet.String(flagConfig, "", "workspace config.json to use")
	if err := flagSet.Parse(args); err != nil {
		return usageError("condakit workspace show [--config <file>] [name]", err)
	}
	opts := workspaceOptions{configPath: *configPath}
	switch flagSet.NArg() {
	case 0:
	case 1:
		opts.profile = flagSet.Arg(0)
	default:
		return usageError("condakit workspace show [--config <file>] [name]", nil)
	}

	cfg, err := opts.resolve()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}
	fmt.Printf("# source: %s", cfg.Source)
	if cfg.Path != "" {
		fmt.Printf(" (%s)", cfg.Path)
	}
	fmt.Printf("\n%s", data)
	return nil
}

func runWorkspaceRemove(args []string) error {
	if len(args) != 1 {
		return usageError("condakit workspace rm <name>", nil)
	}
	profiles, err := workspace.OpenProfiles()
	if err != nil {
		return err
	}
	if err := profiles.Remove(args[0]); err != nil {
		return err
	}
	fmt.Printf("removed workspace profile %q\n", args[0])
	return nil
}
