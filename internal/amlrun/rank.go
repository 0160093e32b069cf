package amlrun

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Environment variables describing the position of a process in a
// distributed job.
const (
	EnvGlobalRank        = "GLOBAL_RANK"
	EnvLocalRank         = "LOCAL_RANK"
	EnvNodeRank          = "NODE_RANK"
	EnvMasterAddr        = "MASTER_ADDR"
	EnvMasterIP          = "MASTER_IP"
	EnvMasterPort        = "MASTER_PORT"
	EnvMPIMasterNode     = "AZ_BATCHAI_MPI_MASTER_NODE"
	EnvOMPICommWorldRank = "OMPI_COMM_WORLD_RANK"
)

// DefaultMasterPort is used when MASTER_PORT is not set.
const DefaultMasterPort = "6105"

// rankIsZero reports whether the rank variable name is unset, empty or "0".
func rankIsZero(name string) bool {
	v := os.Getenv(name)
	return v == "" || v == "0"
}

// IsGlobalRankZero reports whether this process is rank zero of the whole
// job. GLOBAL_RANK and LOCAL_RANK are only set on worker processes, so the
// process must have neither, and NODE_RANK must be unset or "0". Empty
// values count as unset.
func IsGlobalRankZero() bool {
	return os.Getenv(EnvGlobalRank) == "" && os.Getenv(EnvLocalRank) == "" && rankIsZero(EnvNodeRank)
}

// IsLocalRankZero reports whether this process is rank zero on its node.
func IsLocalRankZero() bool {
	return rankIsZero(EnvLocalRank)
}

// MultiNode holds the rendezvous settings of a multi-node job.
type MultiNode struct {
	MasterAddr string
	MasterPort string
	NodeRank   string
}

// SetMultiNodeEnv derives MASTER_ADDR, MASTER_PORT and NODE_RANK from the
// MPI variables set by the cluster and exports them. It returns false for
// single node jobs, where nothing is changed. The chosen settings are
// printed to w.
func SetMultiNodeEnv(w io.Writer, logger *slog.Logger) (MultiNode, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var mn MultiNode
	if v, ok := os.LookupEnv(EnvMPIMasterNode); ok {
		mn.MasterAddr = v
	} else if v, ok := os.LookupEnv(EnvMasterIP); ok {
		mn.MasterAddr = v
	} else {
		logger.Info("No settings for the MPI central node found. Assuming that this is a single node training job.")
		return mn, false, nil
	}
	mn.MasterPort = DefaultMasterPort
	if v, ok := os.LookupEnv(EnvMasterPort); ok {
		mn.MasterPort = v
	}
	mn.NodeRank = os.Getenv(EnvNodeRank)
	if v, ok := os.LookupEnv(EnvOMPICommWorldRank); ok {
		mn.NodeRank = v
	}
	for name, value := range map[string]string{
		EnvMasterAddr: mn.MasterAddr,
		EnvMasterPort: mn.MasterPort,
		EnvNodeRank:   mn.NodeRank,
	} {
		if err := os.Setenv(name, value); err != nil {
			return mn, false, fmt.Errorf("set %s: %w", name, err)
		}
	}
	fmt.Fprintf(w, "Distributed training: MASTER_ADDR = %s, MASTER_PORT = %s, NODE_RANK = %s\n",
		mn.MasterAddr, mn.MasterPort, mn.NodeRank)
	return mn, true, nil
}
