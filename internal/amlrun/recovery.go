// Package amlrun identifies, finds and downloads training runs.
//
// A run is addressed by a recovery ID. The long form is
// "<experiment>:<run id>"; the short form is the bare run ID, which
// embeds the experiment name as "<experiment>_<number>_<hex>" or
// "<experiment>_<number>".
package amlrun

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Separator joins experiment name and run ID in a recovery ID.
const Separator = ":"

var (
	runIDPattern   = regexp.MustCompile(`^(\w+)_\d+_[0-9a-f]+$|^(\w+)_\d+$`)
	unfriendlyChar = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	repeatedUnder  = regexp.MustCompile(`_+`)
)

// SplitRecoveryID returns the experiment name and run ID encoded in id.
func SplitRecoveryID(id string) (experiment, runID string, err error) {
	if strings.Contains(id, Separator) {
		parts := strings.Split(id, Separator)
		if len(parts) != 2 {
			return "", "", fmt.Errorf("recovery ID must have the form experiment%srun_id, got %q", Separator, id)
		}
		return parts[0], parts[1], nil
	}
	m := runIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", "", fmt.Errorf("recovery ID %q is not in the expected format", id)
	}
	experiment = m[1]
	if experiment == "" {
		experiment = m[2]
	}
	return experiment, id, nil
}

// CreateRecoveryID returns the long-form recovery ID of run.
func CreateRecoveryID(run *Run) string {
	return run.Experiment + Separator + run.ID
}

// stripExperiment drops an "experiment:" prefix from id.
func stripExperiment(id string) string {
	if _, runID, ok := strings.Cut(id, Separator); ok {
		return runID
	}
	return id
}

// FriendlyString replaces every character outside [a-zA-Z0-9_] with an
// underscore and collapses runs of underscores.
func FriendlyString(s string) string {
	return repeatedUnder.ReplaceAllString(unfriendlyChar.ReplaceAllString(s, "_"), "_")
}

var durationUnits = map[byte]float64{
	's': 1,
	'm': 60,
	'h': 60 * 60,
	'd': 24 * 60 * 60,
}

// ParseDuration reads a maximum run duration such as "30s", "0.5m",
// "1.5h" or "1d". The empty string means no limit and returns ok=false.
// The result is truncated to whole seconds.
func ParseDuration(s string) (d time.Duration, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	mult, known := durationUnits[s[len(s)-1]]
	if !known {
		return 0, false, fmt.Errorf("run duration %q must end in one of s, m, h, d", s)
	}
	v, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse run duration %q: %w", s, err)
	}
	return time.Duration(int64(v*mult)) * time.Second, true, nil
}
