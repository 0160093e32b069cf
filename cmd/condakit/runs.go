package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"condakit/internal/amlrun"
	"condakit/internal/params"
)

// Flags of run-files.
const (
	paramPrefix   = "prefix"
	paramDownload = "download"
)

// parseCommandParams parses args against set and applies the values.
func parseCommandParams(set *params.Set, usage string, args []string) ([]string, error) {
	res, err := set.Parse(args, true)
	if err != nil {
		return nil, usageError(usage, err)
	}
	if _, err := set.ApplyOverrides(res.Values, true, nil); err != nil {
		return nil, usageError(usage, err)
	}
	return res.Args, nil
}

// ---------------------------------------------------------------------------
// runs
// ---------------------------------------------------------------------------

func runRuns(ctx context.Context, args []string) error {
	set := params.NewSet("runs", append(amlrun.ScriptParams().Params(), workspaceParams()...)...)
	rest, err := parseCommandParams(set, usageRuns, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return usageError(usageRuns, fmt.Errorf("unexpected arguments %q", rest))
	}
	ws := workspaceOptionsFromParams(set)
	store, err := ws.runStore(ws.logger("runs"))
	if err != nil {
		return err
	}

	runs, err := selectRuns(ctx, store, set)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%-48s %-10s %s\n", amlrun.CreateRecoveryID(r), r.Status, r.Created.Format(time.RFC3339))
	}
	return nil
}

// selectRuns picks runs by explicit ID, by the latest run file, or as the
// latest tagged runs of an experiment, in that order of preference.
func selectRuns(ctx context.Context, ws amlrun.Workspace, set *params.Set) ([]*amlrun.Run, error) {
	if v, _ := set.Get(amlrun.ParamRun); v != nil {
		var runs []*amlrun.Run
		for _, id := range v.([]string) {
			run, err := amlrun.RunFromID(ctx, ws, id)
			if err != nil {
				return nil, err
			}
			runs = append(runs, run)
		}
		return runs, nil
	}
	if path := set.GetString(amlrun.ParamLatestRunFile); path != "" {
		run, err := amlrun.MostRecentRun(ctx, ws, path)
		if err != nil {
			return nil, err
		}
		return []*amlrun.Run{run}, nil
	}
	experiment := set.GetString(amlrun.ParamExperiment)
	if experiment == "" {
		return nil, errors.New("one of --run, --latest_run_file or --experiment is required")
	}
	tags, err := amlrun.TagsFromParams(set)
	if err != nil {
		return nil, err
	}
	return amlrun.LatestRuns(ctx, ws, experiment, tags, set.GetInt(amlrun.ParamNumRuns))
}

// ---------------------------------------------------------------------------
// run-files
// ---------------------------------------------------------------------------

func runRunFiles(ctx context.Context, args []string) error {
	set := params.NewSet("run-files", append([]*params.Param{
		{Name: paramPrefix, Kind: params.String, Default: "", Doc: "only files starting with this prefix"},
		{Name: paramDownload, Kind: params.String, Default: "", Doc: "directory to download the files to"},
	}, workspaceParams()...)...)
	rest, err := parseCommandParams(set, usageRunFiles, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return usageError(usageRunFiles, nil)
	}
	ws := workspaceOptionsFromParams(set)
	logger := ws.logger("run-files")
	store, err := ws.runStore(logger)
	if err != nil {
		return err
	}

	run, err := amlrun.RunFromID(ctx, store, rest[0])
	if err != nil {
		return err
	}
	prefix := set.GetString(paramPrefix)
	if dir := set.GetString(paramDownload); dir != "" {
		written, err := amlrun.DownloadRunFiles(ctx, store, run, dir, amlrun.DownloadOptions{Prefix: prefix, Logger: logger})
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Println(path)
		}
		return nil
	}
	names, err := amlrun.RunFileNames(ctx, store, run, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
