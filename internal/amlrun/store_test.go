package amlrun_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condakit/internal/amlrun"
)

func newMemStore(t *testing.T) *amlrun.Store {
	t.Helper()
	return amlrun.NewStore("mem://localhost/" + amlrun.FriendlyString(t.Name()))
}

func TestStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)

	first, err := s.CreateRun(ctx, "exp one", map[string]string{"kind": "baseline"})
	require.NoError(t, err)
	second, err := s.CreateRun(ctx, "exp one", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.ID, "exp_one_"), first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, second.Number)

	experiment, runID, err := amlrun.SplitRecoveryID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "exp_one", experiment)
	assert.Equal(t, first.ID, runID)

	got, err := s.GetRun(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "exp one", got.Experiment)
	assert.Equal(t, "baseline", got.Tags["kind"])
	assert.Equal(t, amlrun.StatusRunning, got.Status)

	runs, err := s.ExperimentRuns(ctx, "exp one")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")

	_, err = s.GetRun(ctx, "exp_one_1_deadbeef")
	assert.ErrorIs(t, err, amlrun.ErrRunNotFound)
}

func TestStoreUnknownExperiment(t *testing.T) {
	runs, err := newMemStore(t).ExperimentRuns(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreStatusAndTags(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	run, err := s.CreateRun(ctx, "exp", nil)
	require.NoError(t, err)
	require.NoError(t, s.SetTags(ctx, run, map[string]string{"completed": "True"}))
	require.NoError(t, s.SetStatus(ctx, run, amlrun.StatusCompleted))

	latest, err := amlrun.LatestRuns(ctx, s, "exp", map[string]string{"completed": "True"}, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, amlrun.StatusCompleted, latest[0].Status)
}

func TestStoreFiles(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	run, err := s.CreateRun(ctx, "exp", nil)
	require.NoError(t, err)

	for name, text := range map[string]string{
		"somepath.txt":            "one",
		"abc/someotherpath.txt":   "two",
		"abc/def/anotherpath.txt": "three",
	} {
		require.NoError(t, s.UploadFile(ctx, run, name, strings.NewReader(text)))
	}

	names, err := s.FileNames(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc/def/anotherpath.txt", "abc/someotherpath.txt", "somepath.txt"}, names)

	clearEnv(t, amlrun.EnvLocalRank)
	dir := t.TempDir()
	written, err := amlrun.DownloadFilesFromRunID(ctx, s, "exp:"+run.ID, dir, amlrun.DownloadOptions{Prefix: "abc/def"})
	require.NoError(t, err)
	require.Len(t, written, 1)
	data, err := os.ReadFile(filepath.Join(dir, "abc", "def", "anotherpath.txt"))
	require.NoError(t, err)
	assert.Equal(t, "three", string(data))
}
