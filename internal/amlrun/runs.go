package amlrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrRunNotFound is returned when a workspace has no run with the
// requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is the metadata of one training run.
type Run struct {
	ID         string            `yaml:"id"`
	Experiment string            `yaml:"experiment"`
	Number     int               `yaml:"number"`
	Status     string            `yaml:"status,omitempty"`
	Tags       map[string]string `yaml:"tags,omitempty"`
	Created    time.Time         `yaml:"created"`
}

// HasTags reports whether run carries every key/value pair in tags.
func (r *Run) HasTags(tags map[string]string) bool {
	for k, v := range tags {
		if got, ok := r.Tags[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Workspace is where runs and their files live.
type Workspace interface {
	// GetRun returns the run with the given bare ID.
	GetRun(ctx context.Context, id string) (*Run, error)
	// ExperimentRuns returns the runs of an experiment, newest first.
	ExperimentRuns(ctx context.Context, experiment string) ([]*Run, error)
	// FileNames lists the files stored with run, as slash-separated paths.
	FileNames(ctx context.Context, run *Run) ([]string, error)
	// DownloadFile writes one file of run to localPath.
	DownloadFile(ctx context.Context, run *Run, name, localPath string) error
}

// FetchRun returns the run named by a recovery ID.
func FetchRun(ctx context.Context, ws Workspace, recoveryID string) (*Run, error) {
	experiment, runID, err := SplitRecoveryID(recoveryID)
	if err != nil {
		return nil, err
	}
	run, err := ws.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve run %s in experiment %s: %w", runID, experiment, err)
	}
	return run, nil
}

// FetchRunForExperiment returns a run of experiment. When it does not
// exist the error lists the runs that do.
func FetchRunForExperiment(ctx context.Context, ws Workspace, experiment, runID string) (*Run, error) {
	run, err := ws.GetRun(ctx, runID)
	if err == nil {
		return run, nil
	}
	runs, listErr := ws.ExperimentRuns(ctx, experiment)
	if listErr != nil {
		return nil, errors.Join(err, listErr)
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return nil, fmt.Errorf("run %s not found for experiment: %s. Available runs are: %s: %w",
		runID, experiment, strings.Join(ids, ", "), ErrRunNotFound)
}

// RunFromID returns the run for a bare run ID or a recovery ID of the
// form "experiment:run_id".
func RunFromID(ctx context.Context, ws Workspace, id string) (*Run, error) {
	return ws.GetRun(ctx, stripExperiment(id))
}

// LatestRuns returns up to n runs of experiment carrying all tags, newest
// first.
func LatestRuns(ctx context.Context, ws Workspace, experiment string, tags map[string]string, n int) ([]*Run, error) {
	runs, err := ws.ExperimentRuns(ctx, experiment)
	if err != nil {
		return nil, err
	}
	var out []*Run
	for _, r := range runs {
		if len(out) == n {
			break
		}
		if r.HasTags(tags) {
			out = append(out, r)
		}
	}
	return out, nil
}

// MostRecentRun reads a run ID from the file at path and returns that run.
func MostRecentRun(ctx context.Context, ws Workspace, path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read latest run file: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return nil, fmt.Errorf("latest run file %s is empty", path)
	}
	return RunFromID(ctx, ws, id)
}

// RunFileNames lists the files of run that start with prefix.
func RunFileNames(ctx context.Context, ws Workspace, run *Run, prefix string) ([]string, error) {
	names, err := ws.FileNames(ctx, run)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		return names, nil
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

// DownloadOptions control DownloadRunFiles.
type DownloadOptions struct {
	Prefix string
	Logger *slog.Logger
}

// DownloadRunFiles downloads the files of run starting with opts.Prefix
// into outputDir, keeping their relative paths, and returns the local
// paths written. Processes other than local rank zero download nothing.
func DownloadRunFiles(ctx context.Context, ws Workspace, run *Run, outputDir string, opts DownloadOptions) ([]string, error) {
	if !IsLocalRankZero() {
		return nil, nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	names, err := RunFileNames(ctx, ws, run, opts.Prefix)
	if err != nil {
		return nil, err
	}
	var written []string
	for _, name := range names {
		local := filepath.Join(outputDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return written, fmt.Errorf("create download dir: %w", err)
		}
		if err := ws.DownloadFile(ctx, run, name, local); err != nil {
			return written, fmt.Errorf("download %s from run %s: %w", name, run.ID, err)
		}
		written = append(written, local)
	}
	logger.Info("downloaded run files", "run", run.ID, "count", len(written), "dir", outputDir)
	return written, nil
}

// DownloadFilesFromRunID resolves id and downloads the run's files.
func DownloadFilesFromRunID(ctx context.Context, ws Workspace, id, outputDir string, opts DownloadOptions) ([]string, error) {
	run, err := RunFromID(ctx, ws, id)
	if err != nil {
		return nil, err
	}
	return DownloadRunFiles(ctx, ws, run, outputDir, opts)
}
