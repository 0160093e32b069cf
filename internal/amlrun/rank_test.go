package amlrun_test

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condakit/internal/amlrun"
)

// clearEnv unsets names for the duration of the test.
func clearEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

var rankVars = []string{
	amlrun.EnvGlobalRank, amlrun.EnvLocalRank, amlrun.EnvNodeRank,
	amlrun.EnvMasterAddr, amlrun.EnvMasterIP, amlrun.EnvMasterPort,
	amlrun.EnvMPIMasterNode, amlrun.EnvOMPICommWorldRank,
}

func TestIsGlobalRankZero(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"nothing set", nil, true},
		{"all ranks zero", map[string]string{amlrun.EnvNodeRank: "0", amlrun.EnvGlobalRank: "0", amlrun.EnvLocalRank: "0"}, false},
		{"global and local zero", map[string]string{amlrun.EnvGlobalRank: "0", amlrun.EnvLocalRank: "0"}, false},
		{"only node rank zero", map[string]string{amlrun.EnvNodeRank: "0"}, true},
		{"only node rank one", map[string]string{amlrun.EnvNodeRank: "1"}, false},
		{"empty global rank", map[string]string{amlrun.EnvGlobalRank: "", amlrun.EnvNodeRank: "0"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t, rankVars...)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tc.want, amlrun.IsGlobalRankZero())
		})
	}
}

func TestIsLocalRankZero(t *testing.T) {
	clearEnv(t, rankVars...)
	assert.True(t, amlrun.IsLocalRankZero())

	t.Setenv(amlrun.EnvGlobalRank, "1")
	t.Setenv(amlrun.EnvLocalRank, "1")
	assert.False(t, amlrun.IsLocalRankZero())
}

func TestSetMultiNodeEnvSingleNode(t *testing.T) {
	clearEnv(t, rankVars...)
	var logs, out bytes.Buffer
	_, ok, err := amlrun.SetMultiNodeEnv(&out, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "No settings for the MPI central node found")
	assert.Contains(t, logs.String(), "Assuming that this is a single node training job")
	assert.Empty(t, out.String())
}

func TestSetMultiNodeEnv(t *testing.T) {
	clearEnv(t, rankVars...)
	t.Setenv(amlrun.EnvMPIMasterNode, "here")
	t.Setenv(amlrun.EnvMasterPort, "there")
	t.Setenv(amlrun.EnvOMPICommWorldRank, "everywhere")
	t.Setenv(amlrun.EnvMasterAddr, "else")

	var out bytes.Buffer
	mn, ok, err := amlrun.SetMultiNodeEnv(&out, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Distributed training: MASTER_ADDR = here, MASTER_PORT = there, NODE_RANK = everywhere")
	assert.Equal(t, amlrun.MultiNode{MasterAddr: "here", MasterPort: "there", NodeRank: "everywhere"}, mn)
	assert.Equal(t, "here", os.Getenv(amlrun.EnvMasterAddr))
	assert.Equal(t, "everywhere", os.Getenv(amlrun.EnvNodeRank))
}

func TestSetMultiNodeEnvMasterIP(t *testing.T) {
	clearEnv(t, rankVars...)
	t.Setenv(amlrun.EnvMasterIP, "here")
	t.Setenv(amlrun.EnvNodeRank, "everywhere")
	t.Setenv(amlrun.EnvMasterAddr, "else")

	var out bytes.Buffer
	_, ok, err := amlrun.SetMultiNodeEnv(&out, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Distributed training: MASTER_ADDR = here, MASTER_PORT = 6105, NODE_RANK = everywhere")
	assert.Equal(t, "6105", os.Getenv(amlrun.EnvMasterPort))
}
