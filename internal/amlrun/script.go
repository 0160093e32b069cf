package amlrun

import (
	"fmt"
	"strings"

	"condakit/internal/params"
)

// Names of the run selection parameters.
const (
	ParamRun           = "run"
	ParamExperiment    = "experiment"
	ParamTags          = "tags"
	ParamNumRuns       = "num_runs"
	ParamLatestRunFile = "latest_run_file"
)

// ScriptParams returns the parameters a script uses to select runs.
// --run takes one or more run IDs, comma separated or as a list literal
// such as "['a','b']"; experiment prefixes are dropped.
func ScriptParams() *params.Set {
	return params.NewSet("run selection",
		&params.Param{
			Name:     ParamRun,
			Kind:     params.Custom,
			Optional: true,
			Doc:      "Run ID(s) to use, either 'run_id' or 'experiment:run_id', comma separated",
			Parse:    parseRunList,
		},
		&params.Param{Name: ParamExperiment, Kind: params.String, Default: "", Doc: "Experiment to pick runs from"},
		&params.Param{Name: ParamTags, Kind: params.ListOrDict, Optional: true, Doc: "Tags the runs must carry, e.g. {'status': 'done'}"},
		&params.Param{Name: ParamNumRuns, Kind: params.Int, Default: 1, Doc: "Number of latest runs to use"},
		&params.Param{Name: ParamLatestRunFile, Kind: params.String, Default: "", Doc: "File holding the ID of the most recent run"},
	)
}

func parseRunList(s string) (any, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	var ids []string
	for _, part := range strings.Split(s, ",") {
		id := strings.Trim(strings.TrimSpace(part), `'"`)
		if id == "" {
			continue
		}
		ids = append(ids, stripExperiment(id))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no run ID in %q", s)
	}
	return ids, nil
}

// TagsFromParams converts the tags parameter to string pairs. A list of
// "key=value" strings is accepted as well as a mapping.
func TagsFromParams(set *params.Set) (map[string]string, error) {
	v, _ := set.Get(ParamTags)
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		tags := make(map[string]string, len(t))
		for k, val := range t {
			tags[k] = fmt.Sprint(val)
		}
		return tags, nil
	case []any:
		tags := make(map[string]string, len(t))
		for _, item := range t {
			k, val, ok := strings.Cut(fmt.Sprint(item), "=")
			if !ok {
				return nil, fmt.Errorf("tag %q must have the form key=value", item)
			}
			tags[k] = val
		}
		return tags, nil
	}
	return nil, fmt.Errorf("unexpected tags value %T", v)
}
