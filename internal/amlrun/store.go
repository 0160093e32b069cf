package amlrun

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Run states.
const (
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
)

const (
	runsDir  = "runs"
	filesDir = "files"
	runFile  = "run.yaml"
)

// Store keeps runs under a storage URL (file://, mem:// or any scheme
// registered with afs):
//
//	<base>/runs/<experiment>/<run id>/run.yaml
//	<base>/runs/<experiment>/<run id>/files/...
type Store struct {
	BaseURL string
	Logger  *slog.Logger

	fs  afs.Service
	now func() time.Time
}

// NewStore returns a Store rooted at baseURL.
func NewStore(baseURL string) *Store {
	return &Store{BaseURL: baseURL, fs: afs.New(), now: time.Now}
}

func (s *Store) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Store) experimentURL(experiment string) string {
	return url.Join(s.BaseURL, runsDir, FriendlyString(experiment))
}

func (s *Store) runURL(run *Run) string {
	return url.Join(s.experimentURL(run.Experiment), run.ID)
}

func (s *Store) fileURL(run *Run, name string) string {
	return url.Join(s.runURL(run), filesDir, name)
}

// CreateRun registers a new running run in experiment. Its ID has the form
// <experiment>_<unix seconds>_<8 hex digits>.
func (s *Store) CreateRun(ctx context.Context, experiment string, tags map[string]string) (*Run, error) {
	existing, err := s.ExperimentRuns(ctx, experiment)
	if err != nil {
		return nil, err
	}
	now := s.now()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	run := &Run{
		ID:         fmt.Sprintf("%s_%d_%s", FriendlyString(experiment), now.Unix(), suffix),
		Experiment: experiment,
		Number:     len(existing) + 1,
		Status:     StatusRunning,
		Tags:       tags,
		Created:    now.UTC(),
	}
	if err := s.writeRun(ctx, run); err != nil {
		return nil, err
	}
	s.logger().Info("created run", "experiment", experiment, "run", run.ID)
	return run, nil
}

// SetStatus records a new status for run.
func (s *Store) SetStatus(ctx context.Context, run *Run, status string) error {
	run.Status = status
	return s.writeRun(ctx, run)
}

// SetTags merges tags into the tags of run.
func (s *Store) SetTags(ctx context.Context, run *Run, tags map[string]string) error {
	if run.Tags == nil {
		run.Tags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		run.Tags[k] = v
	}
	return s.writeRun(ctx, run)
}

func (s *Store) writeRun(ctx context.Context, run *Run) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	if err := s.fs.Upload(ctx, url.Join(s.runURL(run), runFile), 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) readRun(ctx context.Context, runURL string) (*Run, error) {
	data, err := s.fs.DownloadWithURL(ctx, url.Join(runURL, runFile))
	if err != nil {
		return nil, err
	}
	var run Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse %s: %w", url.Join(runURL, runFile), err)
	}
	return &run, nil
}

// UploadFile stores the contents of r as file name of run.
func (s *Store) UploadFile(ctx context.Context, run *Run, name string, r io.Reader) error {
	if err := s.fs.Upload(ctx, s.fileURL(run, name), 0o644, r); err != nil {
		return fmt.Errorf("upload %s to run %s: %w", name, run.ID, err)
	}
	return nil
}

// GetRun finds a run by its bare ID. IDs that embed their experiment are
// looked up directly; others are searched for in every experiment.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if experiment, _, err := SplitRecoveryID(id); err == nil {
		candidate := url.Join(s.experimentURL(experiment), id)
		if ok, _ := s.fs.Exists(ctx, url.Join(candidate, runFile)); ok {
			return s.readRun(ctx, candidate)
		}
	}
	root := url.Join(s.BaseURL, runsDir)
	if ok, _ := s.fs.Exists(ctx, root); ok {
		experiments, err := s.fs.List(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("list experiments: %w", err)
		}
		for _, exp := range experiments {
			if !exp.IsDir() || url.Equals(root, exp.URL()) {
				continue
			}
			candidate := url.Join(exp.URL(), id)
			if ok, _ := s.fs.Exists(ctx, url.Join(candidate, runFile)); ok {
				return s.readRun(ctx, candidate)
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// ExperimentRuns returns the runs of experiment, newest first. An unknown
// experiment has no runs.
func (s *Store) ExperimentRuns(ctx context.Context, experiment string) ([]*Run, error) {
	dir := s.experimentURL(experiment)
	if ok, _ := s.fs.Exists(ctx, dir); !ok {
		return nil, nil
	}
	objects, err := s.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list runs of %s: %w", experiment, err)
	}
	var runs []*Run
	for _, obj := range objects {
		if !obj.IsDir() || url.Equals(dir, obj.URL()) {
			continue
		}
		run, err := s.readRun(ctx, obj.URL())
		if err != nil {
			s.logger().Warn("skipping unreadable run", "url", obj.URL(), "error", err)
			continue
		}
		runs = append(runs, run)
	}
	slices.SortFunc(runs, func(a, b *Run) int { return b.Number - a.Number })
	return runs, nil
}

// FileNames lists the files of run in lexical order.
func (s *Store) FileNames(ctx context.Context, run *Run) ([]string, error) {
	root := url.Join(s.runURL(run), filesDir)
	if ok, _ := s.fs.Exists(ctx, root); !ok {
		return nil, nil
	}
	var names []string
	err := s.fs.Walk(ctx, root, func(_ context.Context, _ string, parent string, info os.FileInfo, _ io.Reader) (bool, error) {
		if !info.IsDir() {
			names = append(names, path.Join(parent, info.Name()))
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files of run %s: %w", run.ID, err)
	}
	slices.Sort(names)
	return names, nil
}

// DownloadFile writes file name of run to localPath.
func (s *Store) DownloadFile(ctx context.Context, run *Run, name, localPath string) error {
	data, err := s.fs.DownloadWithURL(ctx, s.fileURL(run, name))
	if err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0o644)
}
