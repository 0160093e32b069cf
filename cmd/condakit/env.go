package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"condakit/internal/condaenv"
	"condakit/internal/logging"
	"condakit/internal/pyenv"
)

// ---------------------------------------------------------------------------
// merge
// ---------------------------------------------------------------------------

func runMerge(_ context.Context, args []string) error {
	flagSet := newFlagSet("merge")
	output := flagSet.StringP("output", "o", "", "file to write")
	pipFiles := flagSet.StringArray("pip-file", nil, "requirements file to add")
	verbose := flagSet.BoolP(flagVerbose, "v", false, "log debug messages")
	if err := flagSet.Parse(args); err != nil {
		return usageError(usageMerge, err)
	}
	inputs := flagSet.Args()
	if len(inputs) == 0 || *output == "" {
		return usageError(usageMerge, nil)
	}

	m := condaenv.Merger{Logger: logging.NewCommandLogger("merge", *verbose)}
	if err := m.MergeFiles(inputs, *output, *pipFiles...); err != nil {
		return err
	}
	fmt.Printf("merged %d file(s) into %s\n", len(inputs), *output)
	return nil
}

// ---------------------------------------------------------------------------
// pip-include
// ---------------------------------------------------------------------------

func runPipInclude(_ context.Context, args []string) error {
	flagSet := newFlagSet("pip-include")
	output := flagSet.StringP("output", "o", "", "file to write instead of stdout")
	replace := flagSet.StringArray("replace", nil, "pip specifier to put in place of the include lines")
	if err := flagSet.Parse(args); err != nil {
		return usageError(usagePipInclude, err)
	}
	if flagSet.NArg() != 1 {
		return usageError(usagePipInclude, nil)
	}
	path := flagSet.Arg(0)

	doc, err := condaenv.Load(path)
	if err != nil {
		return err
	}
	found, resolved := condaenv.ResolvePipInclude(doc, *replace)
	if !found {
		fmt.Fprintf(os.Stderr, "no pip include lines in %s\n", path)
	}
	if *output != "" {
		return condaenv.Write(resolved, *output)
	}
	data, err := condaenv.Marshal(resolved)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// ---------------------------------------------------------------------------
// env-name
// ---------------------------------------------------------------------------

func runEnvName(ctx context.Context, args []string) error {
	flagSet := newFlagSet("env-name")
	var ws workspaceOptions
	ws.AddFlags(flagSet)
	indexURL := flagSet.String("pip-extra-index-url", "", "extra index for pip")
	image := flagSet.String("docker-base-image", "", "base image of the environment")
	envVars := flagSet.StringArray("env", nil, "environment variable KEY=VALUE")
	wheel := flagSet.String("private-wheel", "", "local wheel to add to the environment")
	if err := flagSet.Parse(args); err != nil {
		return usageError(usageEnvName, err)
	}
	if flagSet.NArg() != 1 {
		return usageError(usageEnvName, nil)
	}

	vars, err := parseEnvVars(*envVars)
	if err != nil {
		return usageError(usageEnvName, err)
	}
	opts := pyenv.Options{
		CondaFile:        flagSet.Arg(0),
		PipExtraIndexURL: *indexURL,
		DockerBaseImage:  *image,
		Variables:        vars,
		PrivateWheel:     *wheel,
	}
	logger := ws.logger("env-name")
	if *wheel != "" {
		store, err := ws.datastore(logger)
		if err != nil {
			return fmt.Errorf("private wheel needs a workspace datastore: %w", err)
		}
		opts.Uploader = store
	}

	env, err := pyenv.Build(ctx, opts)
	if err != nil {
		return err
	}
	logger.Debug("resolved environment", "name", env.Name, "pip", env.PipSpecs(), "variables", len(env.Variables))
	fmt.Println(env.Name)
	return nil
}

func parseEnvVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--env %q: expected KEY=VALUE", pair)
		}
		vars[k] = v
	}
	return vars, nil
}
